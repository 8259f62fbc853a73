package models

import (
	"context"
	"fmt"

	"github.com/akinalp/chanperm/pkg"
)

// ChannelType, kanalın türünü temsil eder (wire formatındaki integer discriminator).
type ChannelType int

const (
	// ChannelTypeUnset, ilk update gelene kadar kanalın türü bilinmez.
	ChannelTypeUnset ChannelType = -1

	ChannelTypeText          ChannelType = 0
	ChannelTypeDM            ChannelType = 1
	ChannelTypeVoice         ChannelType = 2
	ChannelTypeGroupDM       ChannelType = 3
	ChannelTypeCategory      ChannelType = 4
	ChannelTypeNews          ChannelType = 5
	ChannelTypeNewsThread    ChannelType = 10
	ChannelTypePublicThread  ChannelType = 11
	ChannelTypePrivateThread ChannelType = 12
	ChannelTypeStageVoice    ChannelType = 13
	ChannelTypeDirectory     ChannelType = 14
	ChannelTypeForum         ChannelType = 15
	ChannelTypeMedia         ChannelType = 16
)

// IsThread, kanalın thread benzeri olup olmadığını döner.
// Thread'ler kendi override'larını değil, parent kanalın override'larını kullanır.
func (t ChannelType) IsThread() bool {
	switch t {
	case ChannelTypeNewsThread, ChannelTypePublicThread, ChannelTypePrivateThread:
		return true
	default:
		return false
	}
}

// GuildChannel, bir guild kanalını temsil eder.
//
// Kanal guild'in sahibi değildir, sadece GuildID ile guild'e işaret eder (weak reference).
// Guild gerektiğinde client üzerinden aranır; cache'te yoksa sadece ID taşıyan
// PartialGuild kullanılır. Böylece guild ↔ channel arasında döngüsel sahiplik oluşmaz.
//
// ParentID'nin anlamı kanal türüne göre değişir:
// normal kanallarda ait olduğu kategori, thread'lerde thread'in açıldığı kanal.
//
// Kanal aynı ID için gelen her payload'da yerinde (in-place) güncellenir,
// yeniden oluşturulmaz. Eşzamanlı yazma koruması yoktur: tek bir update akışı
// (gateway) varsayılır, okumaları da aynı akış sıralar.
type GuildChannel struct {
	ID       string
	GuildID  string
	Type     ChannelType
	Name     string
	Position int
	NSFW     *bool
	ParentID *string

	overwrites *OverwriteTable
	client     Client
}

// NewGuildChannel, oluşturma payload'ından yeni bir kanal oluşturur ve
// payload'ı ilk update olarak uygular.
//
// client nil olabilir. Bu durumda guild daima PartialGuild olarak çözülür
// ve mutation çağrıları hata döner.
func NewGuildChannel(payload ChannelPayload, client Client) *GuildChannel {
	c := &GuildChannel{
		ID:         payload.ID,
		GuildID:    payload.GuildID,
		Type:       ChannelTypeUnset,
		overwrites: NewOverwriteTable(),
		client:     client,
	}
	c.Update(payload)
	return c
}

// Update, payload'ı kanala partial merge ile uygular.
//
//   - type, name, position, parent_id: payload'da varsa atanır, yoksa dokunulmaz
//   - nsfw: HER ZAMAN atanır; payload'da yoksa nil olur (partial update koruması yok)
//   - permission_overwrites: varsa tablo tamamen yenilenir (merge değil),
//     boş liste de tabloyu boşaltır
//
// Override listesinde aynı hedef birden fazla geçerse sonraki kazanır.
func (c *GuildChannel) Update(payload ChannelPayload) {
	if payload.Type != nil {
		c.Type = *payload.Type
	}
	if payload.Name != nil {
		c.Name = *payload.Name
	}
	if payload.Position != nil {
		c.Position = *payload.Position
	}
	if payload.ParentID.Present {
		c.ParentID = payload.ParentID.Value
	}

	c.NSFW = payload.NSFW

	if payload.PermissionOverwrites != nil {
		c.overwrites = NewOverwriteTableFrom(*payload.PermissionOverwrites)
	}
}

// Overwrites, kanalın kendi override tablosunu döner.
// nil kanal için nil tablo döner, Get yine güvenle çağrılabilir.
func (c *GuildChannel) Overwrites() *OverwriteTable {
	if c == nil {
		return nil
	}
	return c.overwrites
}

// Guild, kanalın ait olduğu guild'i döner.
// Guild henüz cache'te değilse sadece ID taşıyan bir placeholder döner, asla nil değil.
func (c *GuildChannel) Guild() GuildContext {
	if c.client != nil {
		if g, ok := c.client.Guild(c.GuildID); ok {
			return g
		}
	}
	return PartialGuild{ID: c.GuildID}
}

// PermissionsOf, ID'si verilen üyenin bu kanaldaki effective permission'ını hesaplar.
// Üye guild'de bulunamazsa rolsüz bir üye olarak değerlendirilir.
func (c *GuildChannel) PermissionsOf(memberID string) Permission {
	guild := c.Guild()
	member, ok := guild.Member(memberID)
	if !ok {
		member = &Member{ID: memberID}
	}
	return c.permissionsOf(guild, member)
}

// PermissionsOfMember, zaten çözülmüş bir üye için effective permission'ı hesaplar.
// member nil ise 0 döner.
func (c *GuildChannel) PermissionsOfMember(member *Member) Permission {
	return c.permissionsOf(c.Guild(), member)
}

// permissionsOf, channel permission resolution algoritması.
//
// Sıra (düşükten yükseğe öncelik):
//
//	1. base = guild seviyesindeki rol mask'i; Administrator varsa → PermAll (override'lar yok sayılır)
//	2. Thread ise override'lar parent kanaldan okunur
//	3. everyone override (guild ID): (perm & ~deny) | allow
//	4. Üyenin rollerine ait override'lar: TÜM deny'lar ve TÜM allow'lar ayrı ayrı OR'lanır,
//	   sonra tek seferde uygulanır
//	5. Üyeye özel override: (perm & ~deny) | allow
//
// Adım 4'te rol rol sırayla uygulamak farklı sonuç verir: Rol-A allow=X ve Rol-B deny=X
// ise aggregate'te allow kazanır, X set kalır.
//
// Saf bir hesaplamadır: I/O yapmaz, bloklamaz, bulamadığı veri için hata dönmez.
func (c *GuildChannel) permissionsOf(guild GuildContext, member *Member) Permission {
	if member == nil {
		return 0
	}

	permission := guild.PermissionsOf(member)

	if permission&PermAdministrator != 0 {
		return PermAll
	}

	overwrites := c.overwriteSource(guild).Overwrites()

	if o, ok := overwrites.Get(EveryoneTarget(guild)); ok {
		permission = permission.Apply(o.Allow, o.Deny)
	}

	var roleAllow, roleDeny Permission
	for _, roleID := range member.Roles {
		if o, ok := overwrites.Get(roleID); ok {
			roleAllow |= o.Allow
			roleDeny |= o.Deny
		}
	}
	permission = permission.Apply(roleAllow, roleDeny)

	if o, ok := overwrites.Get(member.ID); ok {
		permission = permission.Apply(o.Allow, o.Deny)
	}

	return permission
}

// overwriteSource, override'ların okunacağı kanalı seçer.
// Normal kanal için kendisi, thread için parent kanal.
// Parent bulunamazsa nil döner, override uygulanmaz.
func (c *GuildChannel) overwriteSource(guild GuildContext) *GuildChannel {
	if !c.Type.IsThread() {
		return c
	}
	if c.ParentID == nil {
		return nil
	}
	parent, ok := guild.Channel(*c.ParentID)
	if !ok {
		return nil
	}
	return parent
}

// Payload, kanalın mevcut durumunu update payload formatında döner.
// Snapshot olarak saklamak ve API response'u için kullanılır.
func (c *GuildChannel) Payload() ChannelPayload {
	typ := c.Type
	name := c.Name
	position := c.Position
	overwrites := c.overwrites.List()

	parentID := NullID()
	if c.ParentID != nil {
		parentID = SomeID(*c.ParentID)
	}

	p := ChannelPayload{
		ID:                   c.ID,
		GuildID:              c.GuildID,
		Type:                 &typ,
		Name:                 &name,
		Position:             &position,
		ParentID:             parentID,
		PermissionOverwrites: &overwrites,
	}
	if c.NSFW != nil {
		nsfw := *c.NSFW
		p.NSFW = &nsfw
	}
	return p
}

// ─── Delegated mutation'lar ───
//
// Aşağıdaki metodlar yerel state'i DEĞİŞTİRMEZ. Kanal ID'si ve caller argümanları
// client'a iletilir; sonuçtaki değişiklik daha sonra gateway'den Update ile gelir.
// reason boş olabilir (audit log sebebi opsiyonel).

// Delete, kanalı siler.
func (c *GuildChannel) Delete(ctx context.Context, reason string) error {
	if err := c.requireClient(); err != nil {
		return err
	}
	return c.client.DeleteChannel(ctx, c.ID, reason)
}

// DeletePermission, kanaldan bir override'ı kaldırır.
func (c *GuildChannel) DeletePermission(ctx context.Context, overwriteID, reason string) error {
	if err := c.requireClient(); err != nil {
		return err
	}
	return c.client.DeleteChannelPermission(ctx, c.ID, overwriteID, reason)
}

// Edit, kanal özelliklerini düzenler ve collaborator'ın döndüğü kanalı döner.
func (c *GuildChannel) Edit(ctx context.Context, opts EditChannelOptions, reason string) (*ChannelPayload, error) {
	if err := c.requireClient(); err != nil {
		return nil, err
	}
	return c.client.EditChannel(ctx, c.ID, opts, reason)
}

// EditPermission, bir override'ı oluşturur veya değiştirir.
func (c *GuildChannel) EditPermission(ctx context.Context, overwriteID string, allow, deny Permission, typ OverwriteType, reason string) error {
	if err := c.requireClient(); err != nil {
		return err
	}
	return c.client.EditChannelPermission(ctx, c.ID, overwriteID, allow, deny, typ, reason)
}

// EditPosition, kanalın guild içindeki sırasını değiştirir.
func (c *GuildChannel) EditPosition(ctx context.Context, position int, opts PositionOptions) error {
	if err := c.requireClient(); err != nil {
		return err
	}
	return c.client.EditChannelPosition(ctx, c.GuildID, c.ID, position, opts)
}

func (c *GuildChannel) requireClient() error {
	if c.client == nil {
		return fmt.Errorf("channel %s has no client: %w", c.ID, pkg.ErrInternal)
	}
	return nil
}
