// Package main, chanperm servisinin giriş noktasıdır.
//
// serve komutu "wire-up" yapar:
//  1. Config'i yükle
//  2. Logger'ı kur
//  3. Database'i başlat
//  4. Repository'leri ve guild cache'i oluştur
//  5. WebSocket Hub'ı başlat (subscriber fan-out)
//  6. Service'leri oluştur
//  7. Snapshot'lardan cache'i doldur, gateway'e bağlan
//  8. Handler'ları oluştur
//  9. HTTP router'ı kur, route'ları bağla
//  10. CORS yapılandır
//  11. HTTP Server'ı başlat
//  12. Graceful shutdown
//
// token komutu, HTTP API için imzalı bir erişim token'ı basar.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/akinalp/chanperm/config"
	"github.com/akinalp/chanperm/database"
	"github.com/akinalp/chanperm/handlers"
	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/services"
	"github.com/akinalp/chanperm/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chanperm",
		Short: "Guild channel permission resolution service",
		Long: `Keeps an in-memory guild/channel graph in sync with the gateway event stream
and answers effective channel permission queries over HTTP.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(), tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway consumer and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			// ─── 1. Config ───
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// ─── 2. Logger ───
			logger, err := setupLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return serve(cfg, logger)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		write bool
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Print a signed access token for the HTTP API",
		Example: `  # Read-only token valid for a day
  chanperm token dashboard

  # Token that may forward channel mutations, never expires
  chanperm token ops-bot --write --ttl 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			scope := ""
			if write {
				scope = models.ScopeWrite
			}

			token, err := services.NewAuthService(cfg.JWT.Secret).GenerateAccessToken(args[0], scope, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "allow channel mutation endpoints")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime (0 = no expiry)")

	return cmd
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("main")

	// ─── 3. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// ─── 4. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 5. WebSocket Hub ───
	// Hub, cache'e uygulanan kanal değişikliklerini bağlı subscriber'lara yayınlar.
	hub := ws.NewHub(logger)
	go hub.Run()

	// ─── 6. Service Layer ───
	svcs := initServices(repos, hub, cfg, logger)

	// ─── 7. Rehydrate + Gateway ───
	// Gateway bağlanmadan önce son snapshot'lar yüklenir; ilk guild_create
	// geldiğinde kanallar yerinde güncellenir.
	rehydrateCtx, cancelRehydrate := context.WithTimeout(context.Background(), 30*time.Second)
	restored, err := svcs.Gateway.Rehydrate(rehydrateCtx)
	cancelRehydrate()
	if err != nil {
		return fmt.Errorf("failed to rehydrate channel cache: %w", err)
	}
	log.Info("channel cache rehydrated", zap.Int("channels", restored))

	gateway := ws.NewGateway(ws.GatewayConfig{
		URL:               cfg.Gateway.URL,
		Token:             cfg.REST.BotToken,
		HeartbeatInterval: cfg.Gateway.HeartbeatInterval,
	}, svcs.Gateway.Dispatch, logger)

	gatewayCtx, stopGateway := context.WithCancel(context.Background())
	gatewayDone := make(chan struct{})
	go func() {
		defer close(gatewayDone)
		if err := gateway.Run(gatewayCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("gateway stopped", zap.Error(err))
		}
	}()

	// ─── 8. Handler Layer ───
	h := initHandlers(svcs, repos, hub, gateway, cfg)

	// ─── 9. HTTP Router ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs)

	// ─── 10. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", handlers.ReasonHeader},
		AllowCredentials: false,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 11. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 12. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}
	log.Info("shutting down")

	// Önce gateway durdurulur: cache'e yeni event yazılmaz.
	// Sonra subscriber'lar kapatılır, en son HTTP server mevcut request'leri bitirir.
	stopGateway()
	<-gatewayDone
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	if svcs.Perms != nil {
		svcs.Perms.Close()
	}
	svcs.MutationLimiter.Close()

	log.Info("server stopped gracefully")
	return nil
}

// setupLogger, root logger'ı LOG_LEVEL / LOG_DEV ayarlarına göre kurar.
func setupLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg.Level = level

	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zcfg.Build()
}
