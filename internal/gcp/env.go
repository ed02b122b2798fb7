package gcp

import (
	"os"
	"strconv"
	"time"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvBool reads a boolean environment variable. Unparseable values fall back.
func GetEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvDuration reads a time.Duration such as "15m". Unparseable values fall back.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadLocation resolves the school's time zone, defaulting to UTC.
func LoadLocation(key string) (*time.Location, error) {
	name := GetEnv(key, "UTC")
	return time.LoadLocation(name)
}

// GetEnvInt reads an integer environment variable. Unparseable values fall back.
func GetEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
