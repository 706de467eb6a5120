// config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins []string

	JWTSecret  string
	SessionTTL time.Duration

	// Wallet / chain. An empty WalletRPCURL means "no wallet provider".
	WalletRPCURL        string
	ChainRPCURL         string
	ContractAddress     string
	SlashMethod         string
	ConfirmTimeout      time.Duration
	ReceiptPollInterval time.Duration

	// R2 (S3 compatible) avatar storage; optional.
	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2Bucket            string
	CDNBaseURL          string

	MetricsToken       string
	SettlementInterval time.Duration
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := Config{
		Port:                getenv("PORT", "5200"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AllowedOrigins:      splitOrigins(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          getDuration("SESSION_TTL", 24*time.Hour),
		WalletRPCURL:        os.Getenv("WALLET_RPC_URL"),
		ChainRPCURL:         os.Getenv("CHAIN_RPC_URL"),
		ContractAddress:     os.Getenv("CONTRACT_ADDRESS"),
		SlashMethod:         getenv("SLASH_METHOD", "slash"),
		ConfirmTimeout:      getDuration("CONFIRM_TIMEOUT", 2*time.Minute),
		ReceiptPollInterval: getDuration("RECEIPT_POLL_INTERVAL", 2*time.Second),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:       os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret:   os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:            os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:          os.Getenv("CDN_BASE_URL"),
		MetricsToken:        os.Getenv("METRICS_TOKEN"),
		SettlementInterval:  getDuration("SETTLEMENT_INTERVAL", time.Minute),
	}
	if cfg.ChainRPCURL == "" {
		cfg.ChainRPCURL = cfg.WalletRPCURL
	}
	return cfg
}

// R2Enabled reports whether avatar uploads can be served.
func (c Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2Bucket != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
