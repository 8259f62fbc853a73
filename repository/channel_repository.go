package repository

import (
	"context"

	"github.com/akinalp/chanperm/models"
)

// ChannelRepository, kanal snapshot'larının kalıcı saklanması.
//
// Snapshot, GuildChannel.Payload() çıktısıdır: tüm field'lar dolu, override'lar sıralı.
// Uygulama yeniden başladığında cache bu snapshot'lardan doldurulur,
// gateway ilk event'leri gönderene kadar permission resolution çalışmaya devam eder.
type ChannelRepository interface {
	// Save, kanal satırını ve override'larını tek transaction'da değiştirir (UPSERT).
	Save(ctx context.Context, snapshot models.ChannelPayload) error

	// Delete, kanalı ve override'larını siler. Kanal yoksa pkg.ErrNotFound döner.
	Delete(ctx context.Context, channelID string) error

	// DeleteByGuild, bir guild'in tüm kanallarını siler (guild_delete).
	DeleteByGuild(ctx context.Context, guildID string) error

	// GetByID, tek bir kanal snapshot'ı döner. Yoksa pkg.ErrNotFound.
	GetByID(ctx context.Context, channelID string) (*models.ChannelPayload, error)

	// ListByGuild, bir guild'in snapshot'larını position sırasıyla döner.
	ListByGuild(ctx context.Context, guildID string) ([]models.ChannelPayload, error)

	// List, tüm snapshot'ları guild ve position sırasıyla döner.
	List(ctx context.Context) ([]models.ChannelPayload, error)
}
