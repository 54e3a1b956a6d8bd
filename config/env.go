package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the trimmed value of key, or def when it is unset or blank.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Int falls back to def when key is unset or not an integer.
func Int(key string, def int) int {
	if n, err := strconv.Atoi(String(key, "")); err == nil {
		return n
	}
	return def
}

// Duration parses Go duration syntax ("90s", "2m").
func Duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(String(key, "")); err == nil {
		return d
	}
	return def
}
