package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	FirebaseApiKey  string
	StorageBucket   string
	Environment     string

	// URLs of the serverless enrichment functions. Empty disables them.
	ClassifierURL string
	EmbedderURL   string

	// Chat sync tunables. The coalescing and bounded-size semantics are
	// fixed; only the constants are configurable.
	ReloadDebounceMs    int64
	NotificationFeedCap int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		FirebaseProject:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseApiKey:      getEnv("FIREBASE_API_KEY", ""),
		StorageBucket:       getEnv("STORAGE_BUCKET", ""),
		Environment:         getEnv("ENVIRONMENT", "development"),
		ClassifierURL:       getEnv("CLASSIFIER_FUNCTION_URL", ""),
		EmbedderURL:         getEnv("EMBEDDER_FUNCTION_URL", ""),
		ReloadDebounceMs:    getEnvAsInt64("CHAT_RELOAD_DEBOUNCE_MS", 150),
		NotificationFeedCap: int(getEnvAsInt64("NOTIFICATION_FEED_CAP", 50)),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
