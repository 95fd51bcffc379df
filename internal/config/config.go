package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	RealtimeChannel        string
	NATSURL                string
	JWTSecret              string
	JWTTTL                 time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
	FeedCacheTTL           time.Duration
	AI                     AIConfig
}

// AIConfig groups the settings of the dream interpretation gateway.
type AIConfig struct {
	Provider     string
	GeminiURL    string
	GeminiAPIKey string
	OpenAIAPIKey string
	Model        string
	Timeout      time.Duration
	GatedNames   []string
	MaxPerDream  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BRING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Bring API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("realtime.channel", "bring")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("cloudinary.folder", "bring")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("feed.cache_ttl", "2m")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini_url", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.gated_names", "defne,defneoz,ahmetdemir")
	v.SetDefault("ai.max_per_dream", 3)

	jwtTTL, err := parseDuration(v, "jwt.ttl", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	feedTTL, err := parseDuration(v, "feed.cache_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}

	aiTimeout, err := parseDuration(v, "ai.timeout", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		FeedCacheTTL:           feedTTL,
		AI: AIConfig{
			Provider:     strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			GeminiURL:    v.GetString("ai.gemini_url"),
			GeminiAPIKey: v.GetString("ai.gemini_api_key"),
			OpenAIAPIKey: v.GetString("ai.openai_api_key"),
			Model:        v.GetString("ai.model"),
			Timeout:      aiTimeout,
			GatedNames:   splitList(v.GetString("ai.gated_names")),
			MaxPerDream:  v.GetInt("ai.max_per_dream"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 5
	}

	if cfg.AI.MaxPerDream <= 0 {
		cfg.AI.MaxPerDream = 3
	}

	switch cfg.AI.Provider {
	case "gemini", "openai":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
