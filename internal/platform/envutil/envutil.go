package envutil

import (
	"os"
	"strconv"

	"github.com/studyden/studyden-backend/internal/platform/logger"
)

func GetEnv(key, def string, log *logger.Logger) string {
	v := os.Getenv(key)
	if v == "" {
		if log != nil {
			log.Debug("env var missing, using default", "key", key, "default", def)
		}
		return def
	}
	return v
}

func GetEnvAsInt(key string, def int, log *logger.Logger) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("env var not an int, using default", "key", key, "value", v, "default", def)
		}
		return def
	}
	return i
}

func GetEnvAsInt64(key string, def int64, log *logger.Logger) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		if log != nil {
			log.Warn("env var not an int64, using default", "key", key, "value", v, "default", def)
		}
		return def
	}
	return i
}
