package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv applies environment overrides on top of cfg.
// Unset variables leave the config untouched.
func FromEnv(cfg Config) Config {
	if val := getEnvInt("PORT"); val > 0 {
		cfg.Server.Port = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		cfg.Storage.DataDir = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		cfg.Storage.DatabaseURL = val
	}
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		cfg.Scheduler.Enabled = parseBool(val)
	}
	return cfg
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
