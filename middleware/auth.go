// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware bir fonksiyondur: func(next http.Handler) http.Handler.
// Kendi kontrolünü yapar, geçerse next'i çağırır; geçmezse request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/chanperm/handlers"
	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// TokenValidator, Bearer token'ı doğrulayan capability. services.AuthService karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Require, geçerli bir Bearer token zorunlu kılar. Yoksa veya geçersizse 401.
//
// Header formatı: Authorization: Bearer <token>
// Doğrulanan claims handlers.ClaimsContextKey ile context'e eklenir.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.validator.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireWrite, mutation endpoint'leri için "write" scope'u zorunlu kılar.
// Require'dan sonra zincirlenmelidir; claims yoksa 401, scope yoksa 403.
func (m *AuthMiddleware) RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handlers.ClaimsFromContext(r.Context())
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !claims.CanWrite() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "token does not have write scope")
			return
		}
		next.ServeHTTP(w, r)
	})
}
