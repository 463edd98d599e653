package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port       string
	DBDriver   string
	DBURL      string
	SecretKey  string
	MediaRoot  string
	SiteURL    string
	IndexCache time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	port := getEnv("SERVER_PORT", "8080")
	return &Config{
		Port:       port,
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBURL:      getEnv("DB_URL", ""),
		SecretKey:  getEnv("SECRET_KEY", ""),
		MediaRoot:  getEnv("MEDIA_ROOT", "uploads"),
		SiteURL:    getEnv("SITE_URL", "http://localhost:"+port),
		IndexCache: time.Duration(getEnvInt("INDEX_CACHE_SECONDS", 20)) * time.Second,
		SMTPHost:   getEnv("SMTP_HOST", ""),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
