package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermission_BitQueries(t *testing.T) {
	p := PermViewChannel | PermSendMessages

	assert.True(t, p.Has(PermViewChannel))
	assert.True(t, p.Has(PermViewChannel|PermSendMessages))
	assert.False(t, p.Has(PermViewChannel|PermManageRoles))
	assert.True(t, p.Any(PermViewChannel|PermManageRoles))
	assert.False(t, p.Any(PermManageRoles))

	assert.Equal(t, p|PermManageRoles, p.Add(PermManageRoles))
	assert.Equal(t, PermSendMessages, p.Remove(PermViewChannel))
}

func TestPermission_ApplyDeniesThenAllows(t *testing.T) {
	tests := []struct {
		name  string
		base  Permission
		allow Permission
		deny  Permission
		want  Permission
	}{
		{"deny clears", 0b0011, 0, 0b0001, 0b0010},
		{"allow sets", 0b0000, 0b0100, 0, 0b0100},
		{"allow wins over deny in one step", 0b0000, 0b0001, 0b0001, 0b0001},
		{"mixed allow and deny", 0b0011, 0b0100, 0b0001, 0b0110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.base.Apply(tt.allow, tt.deny))
		})
	}
}

func TestPermAll_CoversKnownBitsAndAdministrator(t *testing.T) {
	assert.True(t, PermAll.Has(PermAdministrator))
	assert.True(t, PermAll.Has(PermSendVoiceMessages))
	assert.False(t, PermAll.Any(1<<knownPermissionBits))
}

func TestPermission_JSON(t *testing.T) {
	high := Permission(1 << 63)

	data, err := json.Marshal(high)
	require.NoError(t, err)
	assert.Equal(t, `"9223372036854775808"`, string(data))

	var fromString Permission
	require.NoError(t, json.Unmarshal([]byte(`"9223372036854775808"`), &fromString))
	assert.Equal(t, high, fromString)

	var fromNumber Permission
	require.NoError(t, json.Unmarshal([]byte(`2048`), &fromNumber))
	assert.Equal(t, PermSendMessages, fromNumber)

	var bad Permission
	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestPermission_SQLRoundTrip(t *testing.T) {
	high := Permission(1<<63 | 1)

	v, err := high.Value()
	require.NoError(t, err)
	assert.Equal(t, "9223372036854775809", v)

	var scanned Permission
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, high, scanned)

	require.NoError(t, scanned.Scan([]byte("2048")))
	assert.Equal(t, PermSendMessages, scanned)

	require.NoError(t, scanned.Scan(int64(-1)))
	assert.Equal(t, Permission(^uint64(0)), scanned)

	assert.Error(t, scanned.Scan(3.14))
}
