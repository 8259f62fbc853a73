package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChannelPayload, gateway'den gelen kanal oluşturma/güncelleme payload'ı.
//
// Pointer field'lar partial update içindir: nil → payload'da yok → değiştirilmez.
// PermissionOverwrites için pointer, "liste yok" ile "boş liste" ayrımını taşır.
// ParentID'de üç durum vardır: yok, null (parent kaldırıldı), değer.
type ChannelPayload struct {
	ID                   string                 `json:"id"`
	GuildID              string                 `json:"guild_id,omitempty"`
	Type                 *ChannelType           `json:"type,omitempty"`
	Name                 *string                `json:"name,omitempty"`
	Position             *int                   `json:"position,omitempty"`
	ParentID             OptionalID             `json:"parent_id,omitzero"`
	NSFW                 *bool                  `json:"nsfw,omitempty"`
	PermissionOverwrites *[]PermissionOverwrite `json:"permission_overwrites,omitempty"`
}

// OptionalID, JSON'da "alan yok", "null" ve "değer" durumlarını ayırt eden ID.
//
// encoding/json, alan payload'da hiç yoksa UnmarshalJSON'ı çağırmaz,
// null dahil herhangi bir değer varsa çağırır. Present bu farkı yakalar.
type OptionalID struct {
	Present bool
	Value   *string
}

// SomeID, değer taşıyan bir OptionalID oluşturur.
func SomeID(id string) OptionalID {
	return OptionalID{Present: true, Value: &id}
}

// NullID, açıkça null olan bir OptionalID oluşturur.
func NullID() OptionalID {
	return OptionalID{Present: true}
}

// IsZero, omitzero tag'i için: payload'da hiç olmayan alan serialize edilmez.
func (o OptionalID) IsZero() bool {
	return !o.Present
}

// MarshalJSON, değer yoksa null yazar.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// UnmarshalJSON, string veya null kabul eder.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	o.Value = &id
	return nil
}

// EditChannelOptions, kanal düzenleme isteği (PATCH body).
// nil field'lar gönderilmez.
type EditChannelOptions struct {
	Name                 *string                `json:"name,omitempty"`
	Topic                *string                `json:"topic,omitempty"`
	Position             *int                   `json:"position,omitempty"`
	NSFW                 *bool                  `json:"nsfw,omitempty"`
	ParentID             OptionalID             `json:"parent_id,omitzero"`
	RateLimitPerUser     *int                   `json:"rate_limit_per_user,omitempty"`
	PermissionOverwrites *[]PermissionOverwrite `json:"permission_overwrites,omitempty"`
}

// PositionOptions, kanal sıralama isteğinin ek parametreleri.
//
// LockPermissions: kanal yeni kategoriye taşınırken override'ları kategoriden kopyala.
// ParentID: kanalı başka bir kategoriye taşı (null → kategorisiz).
type PositionOptions struct {
	LockPermissions *bool      `json:"lock_permissions,omitempty"`
	ParentID        OptionalID `json:"parent_id,omitzero"`
}

// EditPermissionRequest, override oluşturma/güncelleme isteği (PUT body).
type EditPermissionRequest struct {
	Allow Permission    `json:"allow"`
	Deny  Permission    `json:"deny"`
	Type  OverwriteType `json:"type"`
}

// Validate, EditPermissionRequest'in geçerli olup olmadığını kontrol eder.
//
// Allow/deny overlap'ı burada reddedilmez: platform bunu kabul eder ve fold sırası
// sonucu belirler. Sadece hedef türü kontrol edilir.
func (r *EditPermissionRequest) Validate() error {
	if r.Type != OverwriteRole && r.Type != OverwriteMember {
		return fmt.Errorf("overwrite type must be 0 (role) or 1 (member)")
	}
	return nil
}

// EditPositionRequest, kanal sıralama isteği (PATCH body).
type EditPositionRequest struct {
	Position        int        `json:"position"`
	LockPermissions *bool      `json:"lock_permissions,omitempty"`
	ParentID        OptionalID `json:"parent_id,omitzero"`
}

// Validate, EditPositionRequest'in geçerli olup olmadığını kontrol eder.
func (r *EditPositionRequest) Validate() error {
	if r.Position < 0 {
		return fmt.Errorf("position cannot be negative")
	}
	return nil
}
