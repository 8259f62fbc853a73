// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, geliştirme için .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	REST     RESTConfig
	JWT      JWTConfig
	Cache    CacheConfig
	Log      LogConfig
	CORS     CORSConfig
	Limit    RateLimitConfig
}

// ServerConfig, HTTP API ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, kanal snapshot'larının tutulduğu SQLite ayarları.
type DatabaseConfig struct {
	Path string // ör: ./data/chanperm.db
}

// GatewayConfig, event stream bağlantı ayarları.
type GatewayConfig struct {
	URL               string        // ör: wss://gateway.example.com/ws
	HeartbeatInterval time.Duration // heartbeat gönderme aralığı
}

// RESTConfig, kanal mutation'larının iletildiği REST API ayarları.
type RESTConfig struct {
	BaseURL  string
	BotToken string // hem REST hem gateway için kullanılır, GİZLİ TUTULMALI
	Timeout  time.Duration
}

// JWTConfig, kendi HTTP API'mize gelen isteklerin doğrulanması.
type JWTConfig struct {
	Secret string
}

// CacheConfig, permission resolution cache ayarları.
type CacheConfig struct {
	PermissionTTL time.Duration
}

// LogConfig, zap logger ayarları.
type LogConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// RateLimitConfig, upstream'e iletilen mutation'ların token subject'i başına limiti.
// Mutations = 0 limiti kapatır.
type RateLimitConfig struct {
	Mutations int
	Window    time.Duration
	Cooldown  time.Duration
}

// CORSConfig, HTTP API'ye tarayıcıdan erişebilecek origin'ler.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler; yoksa sessizce devam eder.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	heartbeat, err := getSeconds("GATEWAY_HEARTBEAT_SECONDS", "30")
	if err != nil {
		return nil, err
	}

	restTimeout, err := getSeconds("REST_TIMEOUT_SECONDS", "15")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getSeconds("PERMISSION_CACHE_TTL_SECONDS", "30")
	if err != nil {
		return nil, err
	}

	mutationLimit, err := strconv.Atoi(getEnv("MUTATION_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MUTATION_RATE_LIMIT: %w", err)
	}

	limitWindow, err := getSeconds("MUTATION_RATE_WINDOW_SECONDS", "10")
	if err != nil {
		return nil, err
	}

	limitCooldown, err := getSeconds("MUTATION_RATE_COOLDOWN_SECONDS", "30")
	if err != nil {
		return nil, err
	}

	logDev, err := strconv.ParseBool(getEnv("LOG_DEV", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_DEV: %w", err)
	}

	botToken := getEnv("BOT_TOKEN", "")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/chanperm.db"),
		},
		Gateway: GatewayConfig{
			URL:               getEnv("GATEWAY_URL", "ws://localhost:7070/gateway"),
			HeartbeatInterval: heartbeat,
		},
		REST: RESTConfig{
			BaseURL:  getEnv("REST_BASE_URL", "http://localhost:7070/api"),
			BotToken: botToken,
			Timeout:  restTimeout,
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
		},
		Cache: CacheConfig{
			PermissionTTL: cacheTTL,
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: logDev,
		},
		Limit: RateLimitConfig{
			Mutations: mutationLimit,
			Window:    limitWindow,
			Cooldown:  limitCooldown,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// getSeconds, saniye cinsinden bir env değerini time.Duration'a çevirir.
func getSeconds(key, fallback string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return time.Duration(n) * time.Second, nil
}

// splitList, virgülle ayrılmış listeyi boş elemanları atarak böler.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
