package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr   string
	TrustProxy   bool
	MaxBodyBytes int64 // bytes for /v1/signals and admin payloads

	AdminToken string // bearer token for the admin API; empty disables it

	SessionTTL      time.Duration
	SessionSweep    time.Duration
	SessionBackend  string // "memory" or "redis"
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionKeySpace string // redis key prefix

	Outputs    []string // enabled verdict sinks: log, kafka, postgres
	ParamsPath string   // optional scoring parameters JSON; empty uses defaults

	HoneypotSecret string // seeds trap signatures and entity generation
	GeoIPPath      string // optional MaxMind ASN database for reputation
}

func getOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "t", "true", "y", "yes":
		return true
	case "0", "f", "false", "n", "no":
		return false
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getStringSlice(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func Load() Config {
	return Config{
		ServerAddr:   getOr("SERVER_ADDR", ":19790"),
		TrustProxy:   getBool("TRUST_PROXY", false),
		MaxBodyBytes: getInt64("MAX_BODY_BYTES", 1<<20), // 1 MiB default

		AdminToken: getOr("ADMIN_TOKEN", ""),

		SessionTTL:      getDuration("SESSION_TTL", 4*time.Hour),
		SessionSweep:    getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		SessionBackend:  getOr("SESSION_BACKEND", "memory"),
		RedisAddr:       getOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getOr("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		SessionKeySpace: getOr("SESSION_KEYSPACE", "snare:sess"),

		Outputs:    getStringSlice("OUTPUTS", "log"), // default to log only
		ParamsPath: getOr("SCORING_PARAMS_PATH", ""),

		HoneypotSecret: getOr("HONEYPOT_SECRET", "dev-secret-change-in-production"),
		GeoIPPath:      getOr("GEOIP_ASN_DB", ""),
	}
}
