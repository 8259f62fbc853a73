package models

import "context"

// GuildContext, bir kanalın permission hesaplarken ihtiyaç duyduğu guild görünümü.
//
// Kanal bu interface üzerinden guild'e erişir; guild'in somut tipini bilmez.
// Cache'teki Guild ve PartialGuild placeholder'ı bu interface'i karşılar.
type GuildContext interface {
	// GuildID, guild'in ID'si. everyone pseudo-target'ının anahtarıdır.
	GuildID() string

	// PermissionsOf, üyenin override öncesi guild seviyesindeki mask'i.
	PermissionsOf(member *Member) Permission

	// Member, ID ile üye arar.
	Member(id string) (*Member, bool)

	// Channel, ID ile guild kanalı arar (thread → parent yönlendirmesi için).
	Channel(id string) (*GuildChannel, bool)
}

// GuildLookup, guild ID'sinden GuildContext çözer.
type GuildLookup interface {
	Guild(id string) (GuildContext, bool)
}

// ChannelMutator, kanal üzerinde değişiklik yapan dış capability'ler (REST).
//
// Her çağrı kanal ID'si + caller parametreleri + opsiyonel audit reason alır.
// Timeout/retry policy implementasyonun sorumluluğundadır.
type ChannelMutator interface {
	DeleteChannel(ctx context.Context, channelID, reason string) error
	DeleteChannelPermission(ctx context.Context, channelID, overwriteID, reason string) error
	EditChannel(ctx context.Context, channelID string, opts EditChannelOptions, reason string) (*ChannelPayload, error)
	EditChannelPermission(ctx context.Context, channelID, overwriteID string, allow, deny Permission, typ OverwriteType, reason string) error
	EditChannelPosition(ctx context.Context, guildID, channelID string, position int, opts PositionOptions) error
}

// Client, bir kanalın dış dünyadan ihtiyaç duyduğu her şey: guild lookup + mutation'lar.
type Client interface {
	GuildLookup
	ChannelMutator
}

// EveryoneTarget, everyone pseudo-rolünün override anahtarını döner.
// Platform kuralı: everyone rolünün ID'si guild'in kendi ID'sidir.
func EveryoneTarget(guild GuildContext) string {
	return guild.GuildID()
}

// PartialGuild, henüz cache'te olmayan bir guild için sadece ID taşıyan placeholder.
// Base mask 0'dır; üye ve kanal lookup'ları daima "bulunamadı" döner.
type PartialGuild struct {
	ID string
}

func (g PartialGuild) GuildID() string { return g.ID }

func (g PartialGuild) PermissionsOf(*Member) Permission { return 0 }

func (g PartialGuild) Member(string) (*Member, bool) { return nil, false }

func (g PartialGuild) Channel(string) (*GuildChannel, bool) { return nil, false }

// Guild, cache'teki bir guild aggregate'i.
//
// Kanallar guild'e aittir (Channels map'i); kanal ise guild'e sadece ID ile işaret eder.
// Eşzamanlı erişim koruması yoktur, erişimi repository.GuildCache sıralar.
type Guild struct {
	ID       string
	Name     string
	OwnerID  string
	Roles    map[string]Role
	Members  map[string]*Member
	Channels map[string]*GuildChannel
}

// NewGuild, boş bir guild oluşturur.
func NewGuild(id string) *Guild {
	return &Guild{
		ID:       id,
		Roles:    make(map[string]Role),
		Members:  make(map[string]*Member),
		Channels: make(map[string]*GuildChannel),
	}
}

func (g *Guild) GuildID() string { return g.ID }

// PermissionsOf, üyenin guild seviyesindeki base permission'ını hesaplar.
//
//  1. Guild sahibi → PermAll
//  2. base = everyone rolü | üyenin tüm rolleri (OR)
//  3. Administrator varsa → PermAll
func (g *Guild) PermissionsOf(member *Member) Permission {
	if member == nil {
		return 0
	}
	if g.OwnerID != "" && member.ID == g.OwnerID {
		return PermAll
	}

	var base Permission
	if everyone, ok := g.Roles[g.ID]; ok {
		base = everyone.Permissions
	}
	for _, roleID := range member.Roles {
		if role, ok := g.Roles[roleID]; ok {
			base |= role.Permissions
		}
	}

	if base&PermAdministrator != 0 {
		return PermAll
	}
	return base
}

func (g *Guild) Member(id string) (*Member, bool) {
	m, ok := g.Members[id]
	return m, ok
}

func (g *Guild) Channel(id string) (*GuildChannel, bool) {
	c, ok := g.Channels[id]
	return c, ok
}

// GuildPayload, guild_create event'inin payload'ı.
type GuildPayload struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	OwnerID  string           `json:"owner_id"`
	Roles    []Role           `json:"roles"`
	Members  []Member         `json:"members"`
	Channels []ChannelPayload `json:"channels"`
}
