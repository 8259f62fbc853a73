// Package main: Repository katmanı başlatma.
//
// initRepositories, snapshot store'u ve in-memory guild graph'ını oluşturur.
package main

import (
	"database/sql"

	"github.com/akinalp/chanperm/repository"
)

// Repositories, repository instance'larını tutan container struct.
//
// Channel kalıcı snapshot'lardır (restart sonrası rehydrate için),
// Guilds ise permission hesaplarının okuduğu canlı object graph.
type Repositories struct {
	Channel repository.ChannelRepository
	Guilds  *repository.GuildCache
}

// initRepositories, veritabanı bağlantısından repository'leri oluşturur.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Channel: repository.NewSQLiteChannelRepo(conn),
		Guilds:  repository.NewGuildCache(),
	}
}
