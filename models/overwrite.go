package models

import "encoding/json"

// OverwriteType, bir override'ın hedefini belirtir: rol veya üye.
// Wire formatında 0 = role, 1 = member.
type OverwriteType int

const (
	OverwriteRole   OverwriteType = 0
	OverwriteMember OverwriteType = 1
)

// PermissionOverwrite, bir kanal için role veya üyeye özel permission override'ı.
//
//   - allow: Bu bit'ler mevcut mask'e eklenir (izin ver)
//   - deny: Bu bit'ler mevcut mask'ten çıkarılır (engelle)
//
// Allow ve deny'ın ayrık olması saklama seviyesinde zorunlu değildir.
// Aynı bit ikisinde de varsa fold sırası sonucu belirler (bkz. Permission.Apply).
//
// ID; everyone pseudo-rolü (guild ID'si), bir rol ID'si veya bir üye ID'si olabilir.
// Rol ve üye ID'leri aynı namespace'i paylaşır.
type PermissionOverwrite struct {
	ID    string        `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow Permission    `json:"allow"`
	Deny  Permission    `json:"deny"`
}

// OverwriteTable, bir kanalın override'larını hedef ID'ye göre saklar.
//
// Ekleme sırası korunur. Sıra resolution için anlamsızdır ama
// serialize edilen çıktının deterministik olması için gereklidir.
//
// nil *OverwriteTable geçerli bir boş tablodur: Get ve Len panic etmez.
type OverwriteTable struct {
	order   []string
	entries map[string]PermissionOverwrite
}

// NewOverwriteTable, boş bir tablo oluşturur.
func NewOverwriteTable() *OverwriteTable {
	return &OverwriteTable{entries: make(map[string]PermissionOverwrite)}
}

// NewOverwriteTableFrom, listeyi sırayla ekleyerek yeni bir tablo oluşturur.
// Aynı ID birden fazla geçerse sonraki öncekini ezer.
func NewOverwriteTableFrom(list []PermissionOverwrite) *OverwriteTable {
	t := NewOverwriteTable()
	for _, o := range list {
		t.Add(o)
	}
	return t
}

// Add, override'ı ekler. Aynı ID zaten varsa değeri değiştirilir,
// sıradaki yeri (ilk eklenme pozisyonu) korunur.
func (t *OverwriteTable) Add(o PermissionOverwrite) {
	if t.entries == nil {
		t.entries = make(map[string]PermissionOverwrite)
	}
	if _, exists := t.entries[o.ID]; !exists {
		t.order = append(t.order, o.ID)
	}
	t.entries[o.ID] = o
}

// Get, hedef ID'ye ait override'ı döner.
func (t *OverwriteTable) Get(targetID string) (PermissionOverwrite, bool) {
	if t == nil {
		return PermissionOverwrite{}, false
	}
	o, ok := t.entries[targetID]
	return o, ok
}

// Len, tablodaki override sayısı.
func (t *OverwriteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// List, override'ları ekleme sırasıyla döner.
// nil yerine boş slice döner, JSON'da [] olarak serialize olur.
func (t *OverwriteTable) List() []PermissionOverwrite {
	if t == nil {
		return []PermissionOverwrite{}
	}
	list := make([]PermissionOverwrite, 0, len(t.order))
	for _, id := range t.order {
		list = append(list, t.entries[id])
	}
	return list
}

// MarshalJSON, tabloyu sıralı bir liste olarak serialize eder.
func (t *OverwriteTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.List())
}
