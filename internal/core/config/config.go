// Package config loads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type EventsCfg struct {
	Enabled             bool
	Brokers             []string
	Topic               string
	GroupID             string
	InitialOffsetOldest bool
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int

	RedisAddr      string
	BasemapStorage string
	BasemapCache   int

	PreviewCacheSize int
	PreviewCacheTTL  time.Duration
	PromoteAfter     float64
	HotHalfLife      time.Duration
	PreviewTimeout   time.Duration
	MaxRows          int
	MaxBodyBytes     int64
	HexbinDefaultRes int
	HexbinTarget     int

	Events  EventsCfg
	Metrics MetricsCfg
}

func FromEnv() Config {
	storage := strings.ToLower(getenv("BASEMAP_STORAGE", StorageMemory))
	if storage != StorageRedis {
		storage = StorageMemory
	}

	res := getint("HEXBIN_DEFAULT_RES", 7)
	if res < 0 || res > 15 {
		res = 7
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),

		RedisAddr:      getenv("REDIS_ADDR", ""),
		BasemapStorage: storage,
		BasemapCache:   getint("BASEMAP_CACHE_SIZE", 64),

		PreviewCacheSize: getint("PREVIEW_CACHE_SIZE", 256),
		PreviewCacheTTL:  getduration("PREVIEW_CACHE_TTL", 5*time.Minute),
		PromoteAfter:     getfloat("PREVIEW_PROMOTE_AFTER", 2),
		HotHalfLife:      getduration("PREVIEW_HOT_HALFLIFE", 10*time.Minute),
		PreviewTimeout:   getduration("PREVIEW_TIMEOUT", 30*time.Second),
		MaxRows:          getint("MAX_ROWS", 100_000),
		MaxBodyBytes:     int64(getint("MAX_BODY_BYTES", 64<<20)),
		HexbinDefaultRes: res,
		HexbinTarget:     getint("HEXBIN_TARGET_CELLS", 40),

		Events: EventsCfg{
			Enabled:             getbool("EVENTS_ENABLED", false),
			Brokers:             splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:               getenv("KAFKA_TOPIC", "basemap-settings"),
			GroupID:             getenv("KAFKA_GROUP_ID", "geopreview"),
			InitialOffsetOldest: getbool("KAFKA_OFFSET_OLDEST", false),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
