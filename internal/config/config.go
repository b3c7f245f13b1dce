package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds runtime settings read from the environment. Every value has a
// development default so the server starts with an empty .env.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	PageSize      int
	SeedTags      bool
	TemplatesDir  string

	Images    ImageConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type ImageConfig struct {
	Storage   string // "local" or "s3"
	MediaRoot string // local: directory on disk
	MediaURL  string // local: URL prefix the directory is served under
	MaxEdge   int    // longest side after downscaling, px

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PublicURL       string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

func Load() Config {
	cfg := Config{
		Port:          envStr("PORT", "8080"),
		DatabaseURL:   envStr("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=foodgram port=5432 sslmode=disable"),
		SessionSecret: envStr("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:     envStr("JWT_SECRET", "jwt_secret_change_me"),
		TokenTTL:      time.Duration(envInt("TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		BcryptCost:    envInt("BCRYPT_COST", 10),
		PageSize:      envInt("PAGE_SIZE", 6),
		SeedTags:      envBool("SEED_TAGS", true),
		TemplatesDir:  envStr("TEMPLATES_DIR", "./web/templates"),
		Images: ImageConfig{
			Storage:           strings.ToLower(envStr("IMAGE_STORAGE", "local")),
			MediaRoot:         envStr("MEDIA_ROOT", "./media"),
			MediaURL:          envStr("MEDIA_URL", "/media"),
			MaxEdge:           envInt("IMAGE_MAX_EDGE", 1600),
			S3Bucket:          os.Getenv("S3_BUCKET"),
			S3Region:          envStr("S3_REGION", "auto"),
			S3Endpoint:        os.Getenv("S3_ENDPOINT"),
			S3PublicURL:       os.Getenv("S3_PUBLIC_URL"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
			RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
			TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		},
	}

	if cfg.PageSize < 1 {
		cfg.PageSize = 6
	}
	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillTokens < 1 {
		cfg.RateLimit.RefillTokens = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RateLimit.RefillInterval; cfg.RateLimit.TTL < minTTL {
		cfg.RateLimit.TTL = minTTL
	}
	if cfg.Images.Storage == "s3" && cfg.Images.S3Bucket == "" {
		log.Println("IMAGE_STORAGE=s3 but S3_BUCKET is empty, falling back to local storage")
		cfg.Images.Storage = "local"
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	log.Printf("invalid int for %s: %q, using %d", k, v, d)
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

// NewRedisClient returns nil when no address is configured or the server does
// not answer a ping. Callers treat nil as "rate limiting off".
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s: %v", cfg.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
