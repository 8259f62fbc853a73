// Package main: Service katmanı başlatma.
//
// Sıralama: REST client ve permission cache, onları kullanan
// channel ve gateway service'lerinden ÖNCE oluşturulur.
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/chanperm/config"
	"github.com/akinalp/chanperm/pkg/ratelimit"
	"github.com/akinalp/chanperm/rest"
	"github.com/akinalp/chanperm/services"
	"github.com/akinalp/chanperm/ws"
)

// Services, service instance'larını tutan container struct.
type Services struct {
	Auth    services.AuthService
	Channel services.ChannelService
	Gateway services.GatewayService

	// Perms nil olabilir (PERMISSION_CACHE_TTL_SECONDS=0 → memoization kapalı).
	Perms *services.PermissionCache

	// MutationLimiter nil olabilir (MUTATION_RATE_LIMIT=0 → limit yok).
	MutationLimiter *ratelimit.Limiter
}

// initServices, service'leri oluşturur.
//
// Kanallar cache'teki guild'lere guild lookup ile, dış dünyaya REST client ile bağlanır;
// ikisi tek bir models.Client olarak kanala enjekte edilir.
func initServices(repos *Repositories, hub ws.EventPublisher, cfg *config.Config, logger *zap.Logger) *Services {
	restClient := rest.NewClient(cfg.REST.BaseURL, cfg.REST.BotToken, cfg.REST.Timeout, logger)
	channelClient := services.NewChannelClient(repos.Guilds, restClient)

	perms := services.NewPermissionCache(cfg.Cache.PermissionTTL)

	return &Services{
		Auth:    services.NewAuthService(cfg.JWT.Secret),
		Channel: services.NewChannelService(repos.Guilds, perms),
		Gateway: services.NewGatewayService(repos.Guilds, repos.Channel, perms, channelClient, hub, logger),
		Perms:   perms,

		MutationLimiter: ratelimit.New(cfg.Limit.Mutations, cfg.Limit.Window, cfg.Limit.Cooldown),
	}
}
