package services

import (
	"time"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg/cache"
)

// PermissionKey, memoize edilen bir resolution sonucunun anahtarı.
// GuildID key'de tutulur; guild seviyesindeki her değişiklik (rol, üye, kanal)
// o guild'in tüm sonuçlarını geçersiz kılar.
type PermissionKey struct {
	GuildID   string
	ChannelID string
	MemberID  string
}

// PermissionCache, resolution sonuçlarının TTL cache'i.
type PermissionCache = cache.TTLCache[PermissionKey, models.Permission]

// NewPermissionCache, ttl <= 0 ise nil döner (memoization kapalı).
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		return nil
	}
	return cache.New[PermissionKey, models.Permission](ttl, ttl)
}

// invalidateGuild, guild'e ait tüm memoize edilmiş sonuçları siler. nil cache için no-op.
func invalidateGuild(perms *PermissionCache, guildID string) {
	if perms == nil {
		return
	}
	perms.DeleteFunc(func(k PermissionKey) bool { return k.GuildID == guildID })
}
