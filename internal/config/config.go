package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabaseURL     string
	DatabasePath    string
	MigrationsPath  string
	StaticFilesPath string
	CorpusPath      string

	JWTSecret     string
	TokenDuration time.Duration

	// Game rules
	RoundDuration     time.Duration
	DurationTolerance time.Duration
	WordCountMin      int
	WordCountMax      int

	// Abandoned (never finalized) sessions older than this get swept
	SessionRetention time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("PORT", "8000"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:     getEnv("DB_URL", ""),
		DatabasePath:    getEnv("DB_PATH", "./dactylogame.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		CorpusPath:      getEnv("CORPUS_PATH", "./static/frequence.json"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 30*24*time.Hour),

		RoundDuration:     getEnvDuration("ROUND_DURATION", 30*time.Second),
		DurationTolerance: getEnvDuration("DURATION_TOLERANCE", 5*time.Second),
		WordCountMin:      getEnvInt("WORD_COUNT_MIN", 30),
		WordCountMax:      getEnvInt("WORD_COUNT_MAX", 50),

		SessionRetention: getEnvDuration("SESSION_RETENTION", 24*time.Hour),
	}

	if cfg.WordCountMax < cfg.WordCountMin {
		log.Printf("WORD_COUNT_MAX %d below WORD_COUNT_MIN %d, using fixed count %d",
			cfg.WordCountMax, cfg.WordCountMin, cfg.WordCountMin)
		cfg.WordCountMax = cfg.WordCountMin
	}

	return cfg
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
