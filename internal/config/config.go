package config

import (
	"os"
	"strings"
)

// Config holds the server configuration, loaded from the environment.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	RedisURI  string
	JWTSecret string
	LogLevel  string
}

// Load reads configuration from environment variables with defaults. The
// redis address is normalized here so every binary accepts a redis:// URI.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "balanza"),
		RedisURI:  strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
