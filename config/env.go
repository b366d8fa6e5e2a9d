package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString reads a non-empty environment variable.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads and parses an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}
