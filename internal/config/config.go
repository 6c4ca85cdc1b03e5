package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string
	Env  string
	// PostgresDSN selects the durable store; empty means in-memory.
	PostgresDSN   string
	WordsFile     string
	LocationsFile string
}

// Load reads .env if present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getenv("ADDR", ":8080"),
		Env:           getenv("APP_ENV", "production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		WordsFile:     getenv("WORDS_FILE", "data/words.json"),
		LocationsFile: getenv("LOCATIONS_FILE", "data/locations.json"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
