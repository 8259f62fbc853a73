// Package ws, gateway WebSocket akışını tüketir ve kanal değişikliklerini
// bağlı API subscriber'larına dağıtır.
//
// İki yön vardır:
//
//	Gateway (client)  → platform gateway'ine bağlanır, event'leri tek goroutine'de okur
//	Hub (server)      → /ws endpoint'ine bağlanan subscriber'lara snapshot broadcast eder
//
// Gateway event'leri tek bir handler'a, sırayla ve aynı goroutine'de teslim edilir.
// Kanal modeli için tek writer garantisi buradan gelir.
package ws

import (
	"encoding/json"
	"fmt"

	"github.com/akinalp/chanperm/models"
)

// Event, WebSocket üzerinden iletilen bir frame.
//
// Op: event türü ("channel_update", "heartbeat" ...).
// Data: op'a özgü payload, ham JSON olarak tutulur; decode eden taraf tipini bilir.
// Seq: gateway'in artan sıra numarası. Eksik event tespiti ve heartbeat için izlenir.
type Event struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  int64           `json:"seq,omitempty"`
}

// NewEvent, data'yı JSON'a çevirip bir Event oluşturur.
func NewEvent(op string, data any) (Event, error) {
	if data == nil {
		return Event{Op: op}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", op, err)
	}
	return Event{Op: op, Data: raw}, nil
}

// Decode, event payload'ını v'ye çözer.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s event has no payload", e.Op)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Op, err)
	}
	return nil
}

// Bağlantı yönetimi operasyonları (iki yönde de)
const (
	OpHeartbeat    = "heartbeat"     // canlılık sinyali, d = son görülen seq
	OpHeartbeatAck = "heartbeat_ack" // heartbeat'e yanıt
	OpReady        = "ready"         // bağlantı kuruldu
)

// Gateway → servis operasyonları
const (
	OpGuildCreate       = "guild_create"
	OpGuildDelete       = "guild_delete"
	OpGuildRoleCreate   = "guild_role_create"
	OpGuildRoleUpdate   = "guild_role_update"
	OpGuildRoleDelete   = "guild_role_delete"
	OpGuildMemberAdd    = "guild_member_add"
	OpGuildMemberUpdate = "guild_member_update"
	OpGuildMemberRemove = "guild_member_remove"
	OpChannelCreate     = "channel_create" // subscriber'lara da aynı op ile iletilir
	OpChannelUpdate     = "channel_update"
	OpChannelDelete     = "channel_delete"
)

// ─── Payload tipleri ───

// GuildDeleteData, guild_delete payload'ı.
type GuildDeleteData struct {
	ID string `json:"id"`
}

// RoleData, guild_role_create / guild_role_update payload'ı.
type RoleData struct {
	GuildID string      `json:"guild_id"`
	Role    models.Role `json:"role"`
}

// RoleDeleteData, guild_role_delete payload'ı.
type RoleDeleteData struct {
	GuildID string `json:"guild_id"`
	RoleID  string `json:"role_id"`
}

// MemberData, guild_member_add / guild_member_update payload'ı.
type MemberData struct {
	GuildID string        `json:"guild_id"`
	Member  models.Member `json:"member"`
}

// MemberRemoveData, guild_member_remove payload'ı.
type MemberRemoveData struct {
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
}

// ChannelDeleteData, channel_delete payload'ı.
type ChannelDeleteData struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id,omitempty"`
}
