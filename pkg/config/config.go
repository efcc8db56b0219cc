package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	MetricsPort string

	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string
	RedisURL        string

	// GeoIndexBackend is "memory" (in-process H3 grid) or "redis".
	GeoIndexBackend string
	GeoIndexKey     string

	DiscoveryRadiusKm      float64
	MaxContentChars        int
	MaxMediaItems          int
	LocationUpdateInterval time.Duration

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderRetries   int
	GeocoderCacheTTL  time.Duration

	ReactionMaxAttempts int
	ReindexMaxAttempts  int
	ReindexInterval     time.Duration

	JWTSecret               string
	FirebaseCredentialsPath string
	ShutdownTimeout         time.Duration
}

// Load reads configuration from the environment, after loading .env if one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "nearby"),
		RedisURL:        getEnv("REDIS_URL", ""),

		GeoIndexBackend: strings.ToLower(getEnv("GEO_INDEX_BACKEND", "memory")),
		GeoIndexKey:     getEnv("GEO_INDEX_KEY", "posts"),

		DiscoveryRadiusKm:      getEnvFloat("DISCOVERY_RADIUS_KM", 100),
		MaxContentChars:        getEnvInt("MAX_CONTENT_CHARS", 280),
		MaxMediaItems:          getEnvInt("MAX_MEDIA_ITEMS", 5),
		LocationUpdateInterval: getEnvDuration("LOCATION_UPDATE_INTERVAL", time.Hour),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "nearby-backend/1.0"),
		GeocoderTimeout:   getEnvDuration("GEOCODER_TIMEOUT", 3*time.Second),
		GeocoderRetries:   getEnvInt("GEOCODER_RETRIES", 1),
		GeocoderCacheTTL:  getEnvDuration("GEOCODER_CACHE_TTL", 6*time.Hour),

		ReactionMaxAttempts: getEnvInt("REACTION_MAX_ATTEMPTS", 3),
		ReindexMaxAttempts:  getEnvInt("REINDEX_MAX_ATTEMPTS", 5),
		ReindexInterval:     getEnvDuration("REINDEX_INTERVAL", 30*time.Second),

		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		ShutdownTimeout:         getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logrus.WithField("key", key).Warn("invalid integer in environment, using default")
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		logrus.WithField("key", key).Warn("invalid number in environment, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logrus.WithField("key", key).Warn("invalid duration in environment, using default")
	}
	return defaultValue
}
