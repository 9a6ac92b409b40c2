package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Upstream call modes. Async creates a long-running operation that clients
// poll; sync blocks the upstream call until the video exists.
const (
	VeoModeAsync = "async"
	VeoModeSync  = "sync"
)

// Config represents gateway configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	GeminiAPIKey    string
	AllowClientKeys bool

	VeoBaseURL    string
	VeoModel      string
	VeoMode       string
	StartTimeout  time.Duration
	StreamTimeout time.Duration

	PollInterval    time.Duration
	MaxPollAttempts int

	VideoHostAllowlist []string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	GeoIPDBPath        string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AllowClientKeys: getEnvBool("ALLOW_CLIENT_KEYS", false),
		VeoBaseURL:      strings.TrimRight(getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
		VeoModel:        getEnv("VEO_MODEL", "veo-3.0-generate-001"),
		VeoMode:         getEnv("VEO_MODE", VeoModeAsync),
		StartTimeout:    time.Second * time.Duration(getEnvInt("VEO_START_TIMEOUT_SECONDS", 60)),
		StreamTimeout:   time.Second * time.Duration(getEnvInt("VEO_STREAM_TIMEOUT_SECONDS", 120)),
		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		MaxPollAttempts: getEnvInt("MAX_POLL_ATTEMPTS", 60),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// write timeout must outlast the video stream window
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 150)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.VeoMode != VeoModeAsync && cfg.VeoMode != VeoModeSync {
		return nil, fmt.Errorf("VEO_MODE must be %q or %q, got %q", VeoModeAsync, VeoModeSync, cfg.VeoMode)
	}

	if cfg.GeminiAPIKey == "" && !cfg.AllowClientKeys {
		return nil, fmt.Errorf("GEMINI_API_KEY is required unless ALLOW_CLIENT_KEYS=true")
	}

	base, err := url.Parse(cfg.VeoBaseURL)
	if err != nil || base.Hostname() == "" {
		return nil, fmt.Errorf("VEO_BASE_URL is not a valid URL: %q", cfg.VeoBaseURL)
	}
	cfg.VideoHostAllowlist = mergeHostAllowlist(base.Hostname(), splitList(os.Getenv("VIDEO_HOST_ALLOWLIST")))

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}

	return cfg, nil
}

// mergeHostAllowlist keeps the upstream host first and appends the explicit
// entries deduplicated and sorted.
func mergeHostAllowlist(baseHost string, extra []string) []string {
	seen := map[string]struct{}{strings.ToLower(baseHost): {}}
	hosts := make([]string, 0, len(extra))
	for _, h := range extra {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return append([]string{strings.ToLower(baseHost)}, hosts...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
