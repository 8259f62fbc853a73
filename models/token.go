package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, API erişim token'ının payload'ı.
//
// Subject (sub) çağıran servisin veya operatörün kimliğidir. Scope boşsa
// token sadece okuma (permission resolution) yapabilir; "write" kanal
// mutation endpoint'lerini de açar.
type TokenClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// ScopeWrite, mutation endpoint'lerini açan scope.
const ScopeWrite = "write"

// CanWrite, token'ın mutation endpoint'lerini çağırıp çağıramayacağı.
func (c *TokenClaims) CanWrite() bool {
	return c != nil && c.Scope == ScopeWrite
}
