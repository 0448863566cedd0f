package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// String returns the trimmed value of name, or def when it is unset or blank.
func String(log *logger.Logger, name, def string) string {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	debugFound(log, name)
	return v
}

func Int(log *logger.Logger, name string, def int) int {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", name, "provided", v, "default", def)
		}
		return def
	}
	debugFound(log, name)
	return i
}

func Float(log *logger.Logger, name string, def float64) float64 {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "env_var", name, "provided", v, "default", def)
		}
		return def
	}
	debugFound(log, name)
	return f
}

func Bool(log *logger.Logger, name string, def bool) bool {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		debugFound(log, name)
		return true
	case "0", "false", "no", "off":
		debugFound(log, name)
		return false
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as bool, using default", "env_var", name, "provided", v, "default", def)
	}
	return def
}

func Duration(log *logger.Logger, name string, def time.Duration) time.Duration {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if secs, convErr := strconv.Atoi(v); convErr == nil {
			debugFound(log, name)
			return time.Duration(secs) * time.Second
		}
		if log != nil {
			log.Warn("Environment variable could not be parsed as duration, using default", "env_var", name, "provided", v, "default", def)
		}
		return def
	}
	debugFound(log, name)
	return d
}

// List splits a comma-separated variable, dropping blanks.
func List(log *logger.Logger, name string, def []string) []string {
	v, ok := lookup(name)
	if !ok {
		debugDefault(log, name)
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	debugFound(log, name)
	return out
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func debugDefault(log *logger.Logger, name string) {
	if log != nil {
		log.Debug("Environment variable not found, using default", "env_var", name)
	}
}

func debugFound(log *logger.Logger, name string) {
	if log != nil {
		log.Debug("Environment variable found, using environment", "env_var", name)
	}
}
