package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	// DataDir holds the LevelDB files. Empty keeps everything in memory.
	DataDir string

	SessionSecret string
	SessionTTL    time.Duration

	// SyncPollInterval is the view re-read cadence; zero disables polling.
	SyncPollInterval time.Duration
	PaymentDelay     time.Duration
	AllowPickup      bool

	// RedisURL enables the cross-instance change relay when set.
	RedisURL     string
	RedisChannel string

	CORSOrigins []string
	Location    *time.Location
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: .env not loaded: %v", err)
	}

	return &Config{
		Port:             getEnv("PORT", "8081"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DataDir:          getEnv("DATA_DIR", ""),
		SessionSecret:    getEnv("SESSION_SECRET", "dev-secret-change-in-production"),
		SessionTTL:       getDuration("SESSION_TTL", 30*time.Minute),
		SyncPollInterval: getDuration("SYNC_POLL_INTERVAL", 2*time.Second),
		PaymentDelay:     getDuration("PAYMENT_DELAY", 2*time.Second),
		AllowPickup:      getBool("ALLOW_PICKUP", false),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisChannel:     getEnv("REDIS_CHANNEL", "burgerhub:changes"),
		CORSOrigins:      getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		Location:         getLocation("TIMEZONE"),
	}
}

func getEnv(key, fallback string) string {
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
	if err != nil || d < 0 {
		log.Printf("WARNING: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getLocation(key string) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using local time", key, v)
		return time.Local
	}
	return loc
}
