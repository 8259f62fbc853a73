package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// contextKey, context'te değer taşımak için kullanılan özel key tipi.
// string key kullanmak başka paketlerin key'leriyle çakışabilir.
type contextKey string

// ClaimsContextKey, AuthMiddleware'ın doğruladığı token claims'ini taşır.
const ClaimsContextKey contextKey = "claims"

// ClaimsFromContext, context'teki token claims'ini döner.
func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	return claims, ok && claims != nil
}

// AuthHandler, token bilgisi endpoint'i.
type AuthHandler struct{}

// NewAuthHandler, constructor.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type meResponse struct {
	Subject   string     `json:"subject"`
	Scope     string     `json:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Me godoc
// GET /api/auth/me
// Çağıranın token subject'ini ve scope'unu döner.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp := meResponse{Subject: claims.Subject, Scope: claims.Scope}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		resp.ExpiresAt = &exp
	}

	pkg.JSON(w, http.StatusOK, resp)
}
