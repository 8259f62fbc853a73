package repository

import (
	"sync"

	"github.com/akinalp/chanperm/models"
)

// GuildCache, gateway'den beslenen in-memory guild/kanal object graph'ı.
//
// Kanal modeli kendi içinde eşzamanlılık koruması taşımaz. Bütün erişim
// Read/Write closure'ları üzerinden sıralanır:
//
//	Write → gateway read goroutine'i (tek writer), event'i uygular
//	Read  → HTTP handler'ları, permission resolution
//
// Closure içindeki lookup metodları (Guild, Channel, ...) kilit ALMAZ;
// closure dışında çağrılmamalıdır.
type GuildCache struct {
	mu           sync.RWMutex
	guilds       map[string]*models.Guild
	channelGuild map[string]string // channel ID → guild ID
}

// NewGuildCache, boş bir cache oluşturur.
func NewGuildCache() *GuildCache {
	return &GuildCache{
		guilds:       make(map[string]*models.Guild),
		channelGuild: make(map[string]string),
	}
}

// Read, fn'i read lock altında çalıştırır.
func (c *GuildCache) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Write, fn'i write lock altında çalıştırır.
func (c *GuildCache) Write(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Guild, models.GuildLookup implementasyonu. Kanallar guild'i bu metodla çözer.
func (c *GuildCache) Guild(id string) (models.GuildContext, bool) {
	g, ok := c.guilds[id]
	if !ok {
		return nil, false
	}
	return g, true
}

// CachedGuild, somut guild aggregate'ini döner.
func (c *GuildCache) CachedGuild(id string) (*models.Guild, bool) {
	g, ok := c.guilds[id]
	return g, ok
}

// EnsureGuild, guild yoksa boş bir guild oluşturur.
// Snapshot'tan rehydrate ederken kanal guild_create'ten önce gelebilir.
func (c *GuildCache) EnsureGuild(id string) *models.Guild {
	g, ok := c.guilds[id]
	if !ok {
		g = models.NewGuild(id)
		c.guilds[id] = g
	}
	return g
}

// PutGuild, guild'i cache'e yazar ve kanallarını indeksler.
// Aynı ID'li eski guild'in kanal indeksi temizlenir.
func (c *GuildCache) PutGuild(g *models.Guild) {
	if old, ok := c.guilds[g.ID]; ok {
		for id := range old.Channels {
			delete(c.channelGuild, id)
		}
	}
	c.guilds[g.ID] = g
	for id := range g.Channels {
		c.channelGuild[id] = g.ID
	}
}

// RemoveGuild, guild'i ve kanal indeksini siler. Guild yoksa false döner.
func (c *GuildCache) RemoveGuild(id string) bool {
	g, ok := c.guilds[id]
	if !ok {
		return false
	}
	for channelID := range g.Channels {
		delete(c.channelGuild, channelID)
	}
	delete(c.guilds, id)
	return true
}

// Channel, ID ile kanalı bütün guild'ler arasında arar.
func (c *GuildCache) Channel(id string) (*models.GuildChannel, bool) {
	guildID, ok := c.channelGuild[id]
	if !ok {
		return nil, false
	}
	g, ok := c.guilds[guildID]
	if !ok {
		return nil, false
	}
	return g.Channel(id)
}

// PutChannel, kanalı guild'ine ekler (guild yoksa oluşturulur).
func (c *GuildCache) PutChannel(ch *models.GuildChannel) {
	g := c.EnsureGuild(ch.GuildID)
	g.Channels[ch.ID] = ch
	c.channelGuild[ch.ID] = ch.GuildID
}

// RemoveChannel, kanalı cache'ten siler ve silinen kanalı döner.
func (c *GuildCache) RemoveChannel(id string) (*models.GuildChannel, bool) {
	ch, ok := c.Channel(id)
	if !ok {
		return nil, false
	}
	delete(c.channelGuild, id)
	if g, ok := c.guilds[ch.GuildID]; ok {
		delete(g.Channels, id)
	}
	return ch, true
}

// Len, cache'teki guild sayısı. Closure içinde kullanılır.
func (c *GuildCache) Len() int {
	return len(c.guilds)
}

// GuildCount, Len'in closure dışından çağrılabilen hali: kendi read lock'unu alır.
func (c *GuildCache) GuildCount() int {
	var n int
	c.Read(func() { n = c.Len() })
	return n
}
