// Package main: Handler katmanı başlatma.
//
// Handler'lar "thin" dir: sadece HTTP parse + service call + response write.
package main

import (
	"net/http"
	"slices"

	"github.com/akinalp/chanperm/config"
	"github.com/akinalp/chanperm/handlers"
	"github.com/akinalp/chanperm/ws"
)

// Handlers, handler instance'larını tutan container struct.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Channel *handlers.ChannelHandler
	Health  *handlers.HealthHandler
	WS      *ws.Handler
}

// initHandlers, handler'ları service dependency'leri ile oluşturur.
func initHandlers(svcs *Services, repos *Repositories, hub *ws.Hub, gateway handlers.GatewayStatus, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:    handlers.NewAuthHandler(),
		Channel: handlers.NewChannelHandler(svcs.Channel),
		Health:  handlers.NewHealthHandler(gateway, repos.Guilds.GuildCount),
		WS:      ws.NewHandler(hub, svcs.Auth, originChecker(cfg.CORS.AllowedOrigins)),
	}
}

// originChecker, WebSocket upgrade'inde CORS ile aynı origin listesini uygular.
// Origin header'ı olmayan istekler (tarayıcı dışı client'lar) kabul edilir.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}
