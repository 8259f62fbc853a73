package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
)

// Permission, bir üyenin yetkilerini tek bir 64-bit bitmask olarak temsil eder.
//
// Platform permission'ları 41+ farklı bit kullanır ve büyümeye devam eder,
// bu yüzden int64 yerine uint64 kullanıyoruz. En üst bit de geçerli bir
// permission olabilir, işaret (sign) karışıklığı olmaz.
//
// Kontrol: p.Has(PermSendMessages) → bu yetki var mı?
// Ekleme: p.Add(PermSendMessages)  → p | perm
// Çıkarma: p.Remove(PermSendMessages) → p &^ perm
type Permission uint64

// Bit anlamları bu katmanda modellenmez, sadece isimler sabittir.
const (
	PermCreateInstantInvite     Permission = 1 << 0
	PermKickMembers             Permission = 1 << 1
	PermBanMembers              Permission = 1 << 2
	PermAdministrator           Permission = 1 << 3 // tüm kanal override'larını bypass eder
	PermManageChannels          Permission = 1 << 4
	PermManageGuild             Permission = 1 << 5
	PermAddReactions            Permission = 1 << 6
	PermViewAuditLog            Permission = 1 << 7
	PermPrioritySpeaker         Permission = 1 << 8
	PermStream                  Permission = 1 << 9
	PermViewChannel             Permission = 1 << 10
	PermSendMessages            Permission = 1 << 11
	PermSendTTSMessages         Permission = 1 << 12
	PermManageMessages          Permission = 1 << 13
	PermEmbedLinks              Permission = 1 << 14
	PermAttachFiles             Permission = 1 << 15
	PermReadMessageHistory      Permission = 1 << 16
	PermMentionEveryone         Permission = 1 << 17
	PermUseExternalEmojis       Permission = 1 << 18
	PermViewGuildInsights       Permission = 1 << 19
	PermConnect                 Permission = 1 << 20
	PermSpeak                   Permission = 1 << 21
	PermMuteMembers             Permission = 1 << 22
	PermDeafenMembers           Permission = 1 << 23
	PermMoveMembers             Permission = 1 << 24
	PermUseVAD                  Permission = 1 << 25
	PermChangeNickname          Permission = 1 << 26
	PermManageNicknames         Permission = 1 << 27
	PermManageRoles             Permission = 1 << 28
	PermManageWebhooks          Permission = 1 << 29
	PermManageGuildExpressions  Permission = 1 << 30
	PermUseApplicationCommands  Permission = 1 << 31
	PermRequestToSpeak          Permission = 1 << 32
	PermManageEvents            Permission = 1 << 33
	PermManageThreads           Permission = 1 << 34
	PermCreatePublicThreads     Permission = 1 << 35
	PermCreatePrivateThreads    Permission = 1 << 36
	PermUseExternalStickers     Permission = 1 << 37
	PermSendMessagesInThreads   Permission = 1 << 38
	PermUseEmbeddedActivities   Permission = 1 << 39
	PermModerateMembers         Permission = 1 << 40
	PermViewCreatorMonetization Permission = 1 << 41
	PermUseSoundboard           Permission = 1 << 42
	PermCreateGuildExpressions  Permission = 1 << 43
	PermCreateEvents            Permission = 1 << 44
	PermUseExternalSounds       Permission = 1 << 45
	PermSendVoiceMessages       Permission = 1 << 46
)

// knownPermissionBits, tanımlı permission bit sayısıdır.
// Yeni permission eklendikçe bu değer güncellenir.
const knownPermissionBits = 47

// PermAll, tüm tanımlı yetkilerin toplamıdır: (1 << N) - 1
const PermAll Permission = (1 << knownPermissionBits) - 1

// Has, perm içindeki TÜM bit'lerin set olup olmadığını kontrol eder.
//
// Dikkat: Administrator bypass burada yapılmaz. Administrator kuralı
// channel permission resolution'ın ilk adımında uygulanır, sonuç zaten PermAll olur.
func (p Permission) Has(perm Permission) bool {
	return p&perm == perm
}

// Any, perm içindeki bit'lerden en az birinin set olup olmadığını kontrol eder.
func (p Permission) Any(perm Permission) bool {
	return p&perm != 0
}

// Add, perm bit'lerini ekler.
func (p Permission) Add(perm Permission) Permission {
	return p | perm
}

// Remove, perm bit'lerini kaldırır.
func (p Permission) Remove(perm Permission) Permission {
	return p &^ perm
}

// Apply, bir deny/allow çiftini mask'e uygular (fold):
//
//	(p & ~deny) | allow
//
// Önce deny bit'leri temizlenir, sonra allow bit'leri set edilir;
// aynı bit hem deny hem allow'da varsa allow kazanır.
func (p Permission) Apply(allow, deny Permission) Permission {
	return (p &^ deny) | allow
}

// String, mask'i decimal olarak döner (wire formatı ile aynı).
func (p Permission) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// MarshalJSON, permission'ı decimal string olarak serialize eder.
//
// Neden string? JSON number'ları birçok client'ta float64'e düşer ve
// 2^53 üstündeki bit'ler kaybolur. String ile tüm 64 bit korunur.
func (p Permission) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON, hem "123" (string) hem 123 (number) formatını kabul eder.
func (p *Permission) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("invalid permission string %s: %w", raw, err)
		}
		raw = unquoted
	}

	v, err := ParsePermission(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePermission, decimal string'i Permission'a çevirir.
func ParsePermission(s string) (Permission, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid permission value %q: %w", s, err)
	}
	return Permission(v), nil
}

// Value, database/sql için decimal TEXT döner.
// SQLite INTEGER signed 64-bit'tir, üst bit'i kaybetmemek için TEXT saklıyoruz.
func (p Permission) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan, database/sql'den okunan değeri Permission'a çevirir.
func (p *Permission) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = 0
		return nil
	case int64:
		*p = Permission(uint64(v))
		return nil
	case string:
		parsed, err := ParsePermission(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		parsed, err := ParsePermission(string(v))
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Permission", src)
	}
}
