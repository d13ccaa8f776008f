package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel slog.Level

	ServerURL string
	SocketURL string

	DriverSampleInterval   time.Duration
	CommuterSampleInterval time.Duration
	FixTimeout             time.Duration

	ReconnectMin time.Duration
	ReconnectMax time.Duration

	Role         string
	DriverBusID  string
	TrackRouteID string

	StartLat float64
	StartLng float64
	SimStep  float64

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

func Load() (*Config, error) {
	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		return nil, fmt.Errorf("SERVER_URL environment variable is required")
	}

	socketURL := getEnv("SOCKET_URL", "")
	if socketURL == "" {
		derived, err := deriveSocketURL(serverURL)
		if err != nil {
			return nil, fmt.Errorf("deriving socket url from SERVER_URL: %w", err)
		}
		socketURL = derived
	}

	return &Config{
		LogLevel: getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),

		ServerURL: serverURL,
		SocketURL: socketURL,

		DriverSampleInterval:   getDurationEnv("DRIVER_SAMPLE_INTERVAL", 10*time.Second),
		CommuterSampleInterval: getDurationEnv("COMMUTER_SAMPLE_INTERVAL", 30*time.Second),
		FixTimeout:             getDurationEnv("FIX_TIMEOUT", 5*time.Second),

		ReconnectMin: getDurationEnv("RECONNECT_MIN", time.Second),
		ReconnectMax: getDurationEnv("RECONNECT_MAX", 30*time.Second),

		Role:         getEnv("ROLE", "commuter"),
		DriverBusID:  getEnv("DRIVER_BUS_NUMBER", ""),
		TrackRouteID: getEnv("TRACK_ROUTE_ID", ""),

		StartLat: getFloatEnv("START_LAT", 28.6139),
		StartLng: getFloatEnv("START_LNG", 77.2090),
		SimStep:  getFloatEnv("SIM_STEP_DEG", 0.0005),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", time.Hour),
	}, nil
}

func deriveSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}
