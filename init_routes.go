// Package main: HTTP route registration.
//
// initRoutes, API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması (okuma endpoint'leri)
//   - authWrite: auth + write scope + subject başına rate limit (upstream'e iletilen mutation'lar)
package main

import (
	"net/http"

	"github.com/akinalp/chanperm/middleware"
)

// initRoutes, middleware chain'i kurar ve endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Go 1.22 mux'ta daha spesifik pattern kazanır,
// "/api/channels/{id}/position" ile "/api/channels/{id}" çakışmaz.
func initRoutes(mux *http.ServeMux, h *Handlers, svcs *Services) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(svcs.Auth)
	limitMw := middleware.NewRateLimitMiddleware(svcs.MutationLimiter)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authWrite := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(authMw.RequireWrite(limitMw.Limit(http.HandlerFunc(handler))))
	}

	// Health, load balancer ve container probe'ları için auth istemez.
	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Auth
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))

	// Guild kanal listesi
	mux.Handle("GET /api/guilds/{guildId}/channels", auth(h.Channel.ListByGuild))

	// Channels: okuma
	mux.Handle("GET /api/channels/{id}", auth(h.Channel.Get))
	mux.Handle("GET /api/channels/{id}/permissions/{memberId}", auth(h.Channel.Permissions))

	// Channels: mutation'lar. Yerel state değişmez, sonuç gateway'den gelir.
	mux.Handle("PATCH /api/channels/{id}", authWrite(h.Channel.Update))
	mux.Handle("DELETE /api/channels/{id}", authWrite(h.Channel.Delete))
	mux.Handle("PATCH /api/channels/{id}/position", authWrite(h.Channel.EditPosition))
	mux.Handle("PUT /api/channels/{id}/permissions/{overwriteId}", authWrite(h.Channel.EditPermission))
	mux.Handle("DELETE /api/channels/{id}/permissions/{overwriteId}", authWrite(h.Channel.DeletePermission))

	// WebSocket: kanal değişikliklerinin subscriber fan-out'u.
	// Tarayıcılar upgrade sırasında custom header gönderemez, token query parameter'dan gelir:
	//   ws://server/ws?token=JWT_TOKEN
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
