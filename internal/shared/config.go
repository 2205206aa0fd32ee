package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	CORSOrigins    []string
	AssetsDir      string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	SessionTTL     time.Duration
	Rasterizer     string // native|chrome
	ChromeURL      string
	ExportWorkers  int
	ExportRPS      float64
	DefaultScale   float64
	UploadMaxBytes int64
	FetchRPS       int

	// FetchAllowPrivate lets image URLs reach loopback and private networks.
	FetchAllowPrivate bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		CORSOrigins:    splitList(env("CORS_ORIGINS", "http://localhost:5173")),
		AssetsDir:      env("ASSETS_DIR", "./public"),
		MySQLDSN:       env("MYSQL_DSN", ""),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionTTL:     time.Duration(atoi("SESSION_TTL_MINUTES", 60)) * time.Minute,
		Rasterizer:     strings.ToLower(env("RASTERIZER", "native")),
		ChromeURL:      env("CHROME_URL", ""),
		ExportWorkers:  atoi("EXPORT_WORKERS", 4),
		ExportRPS:      atof("EXPORT_RPS", 2),
		DefaultScale:   atof("DEFAULT_SCALE", 2),
		UploadMaxBytes: int64(atoi("UPLOAD_MAX_BYTES", 10<<20)),
		FetchRPS:       atoi("FETCH_RPS", 5),
	}
	c.FetchAllowPrivate, _ = strconv.ParseBool(env("FETCH_ALLOW_PRIVATE", "false"))
	if c.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN is empty; export history disabled")
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty; rendered posters are not cached")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
