package utils

import (
	"os"
	"strconv"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
)

// Env lookup helpers. A nil logger is allowed for lookups that happen
// before logging is wired.

func GetEnv(key, fallback string, log *logger.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logFallback(log, key, "env var not set, using default", "default", fallback)
	return fallback
}

func GetEnvAsInt(key string, fallback int, log *logger.Logger) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		logFallback(log, key, "env var not set, using default", "default", fallback)
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logFallback(log, key, "env var is not an integer, using default", "value", raw, "default", fallback)
		return fallback
	}
	return n
}

func GetEnvAsBool(key string, fallback bool, log *logger.Logger) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logFallback(log, key, "env var is not a bool, using default", "value", raw, "default", fallback)
		return fallback
	}
	return b
}

func logFallback(log *logger.Logger, key, msg string, kv ...interface{}) {
	if log == nil {
		return
	}
	log.With("env_var", key).Debug(msg, kv...)
}
