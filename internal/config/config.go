package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// AuthConfig defines the issuer/secret pair and lifetime for login tokens.
type AuthConfig struct {
	Issuer   string
	Secret   []byte
	TokenTTL time.Duration
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                     string
	MongoURI                 string
	MongoDatabase            string
	RatingCollection         string
	PlaceCollection          string
	PromotionMonthCollection string
	UserCollection           string
	Timeout                  time.Duration
	ServerLog                *log.Logger
	Auth                     AuthConfig
	PlacesAPIKey             string
	PlacesBaseURL            string
	AllowedOrigins           []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() Config {
	timeout := 10 * time.Second
	if v := os.Getenv("MONGO_CONNECT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			timeout = parsed
		}
	}

	authSecret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	if authSecret == "" {
		log.Fatal("AUTH_JWT_SECRET must be configured")
	}

	tokenTTL := 30 * 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("AUTH_TOKEN_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			tokenTTL = parsed
		}
	}

	placesAPIKey := strings.TrimSpace(os.Getenv("PLACES_API_KEY"))
	if placesAPIKey == "" {
		log.Fatal("PLACES_API_KEY must be configured")
	}

	cfg := Config{
		Addr:                     envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:                 envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:            envOrDefault("MONGO_DB", "peer"),
		RatingCollection:         envOrDefault("RATING_COLLECTION", "ratings"),
		PlaceCollection:          envOrDefault("PLACE_COLLECTION", "places"),
		PromotionMonthCollection: envOrDefault("PROMOTION_MONTH_COLLECTION", "promotion_months"),
		UserCollection:           envOrDefault("USER_COLLECTION", "users"),
		Timeout:                  timeout,
		ServerLog:                log.New(os.Stdout, "[peer-api] ", log.LstdFlags|log.Lshortfile),
		Auth: AuthConfig{
			Issuer:   envOrDefault("AUTH_JWT_ISSUER", "peer-api"),
			Secret:   []byte(authSecret),
			TokenTTL: tokenTTL,
		},
		PlacesAPIKey:   placesAPIKey,
		PlacesBaseURL:  envOrDefault("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		AllowedOrigins: parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
