package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations, binary'ye gömülü migration dosyalarını döner (kök dizin = migrations/).
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// fs.Sub sadece geçersiz path'te hata verir; "migrations" sabit ve geçerli.
		panic(err)
	}
	return sub
}
