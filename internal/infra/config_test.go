package infra

import (
	"testing"
	"time"
)

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "GEMINI_API_KEY", "ALLOW_CLIENT_KEYS",
		"VEO_BASE_URL", "VEO_MODEL", "VEO_MODE",
		"VEO_START_TIMEOUT_SECONDS", "VEO_STREAM_TIMEOUT_SECONDS",
		"POLL_INTERVAL_SECONDS", "MAX_POLL_ATTEMPTS",
		"VIDEO_HOST_ALLOWLIST", "CORS_ALLOWED_ORIGINS",
		"RATE_LIMIT_PER_MINUTE", "GEOIP_DB_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VeoBaseURL != "https://generativelanguage.googleapis.com/v1beta" {
		t.Fatalf("VeoBaseURL = %q", cfg.VeoBaseURL)
	}
	if cfg.VeoMode != VeoModeAsync {
		t.Fatalf("VeoMode = %q, want %q", cfg.VeoMode, VeoModeAsync)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %s, want 10s", cfg.PollInterval)
	}
	if cfg.MaxPollAttempts != 60 {
		t.Fatalf("MaxPollAttempts = %d, want 60", cfg.MaxPollAttempts)
	}
	if cfg.StreamTimeout != 120*time.Second {
		t.Fatalf("StreamTimeout = %s, want 120s", cfg.StreamTimeout)
	}
	if len(cfg.VideoHostAllowlist) != 1 || cfg.VideoHostAllowlist[0] != "generativelanguage.googleapis.com" {
		t.Fatalf("VideoHostAllowlist mismatch: %#v", cfg.VideoHostAllowlist)
	}
}

func TestLoadConfigRequiresServerKey(t *testing.T) {
	clearGatewayEnv(t)

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig should fail without GEMINI_API_KEY")
	}

	t.Setenv("ALLOW_CLIENT_KEYS", "true")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig with ALLOW_CLIENT_KEYS returned error: %v", err)
	}
	if !cfg.AllowClientKeys {
		t.Fatalf("AllowClientKeys should be true")
	}
}

func TestLoadConfigMergesVideoHostAllowlist(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret-key")
	t.Setenv("VEO_BASE_URL", "https://upstream.example.com/v1beta")
	t.Setenv("VIDEO_HOST_ALLOWLIST", "media.example.com, cdn.example.com , upstream.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"upstream.example.com", "cdn.example.com", "media.example.com"}
	if len(cfg.VideoHostAllowlist) != len(expected) {
		t.Fatalf("VideoHostAllowlist mismatch: got %#v want %#v", cfg.VideoHostAllowlist, expected)
	}
	for i, host := range expected {
		if cfg.VideoHostAllowlist[i] != host {
			t.Fatalf("VideoHostAllowlist[%d] = %q, want %q", i, cfg.VideoHostAllowlist[i], host)
		}
	}
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret-key")
	t.Setenv("VEO_MODE", "batch")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig should reject unknown VEO_MODE")
	}
}

func TestLoadConfigClampsPollSettings(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GEMINI_API_KEY", "secret-key")
	t.Setenv("POLL_INTERVAL_SECONDS", "-3")
	t.Setenv("MAX_POLL_ATTEMPTS", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %s, want clamped 10s", cfg.PollInterval)
	}
	if cfg.MaxPollAttempts != 60 {
		t.Fatalf("MaxPollAttempts = %d, want clamped 60", cfg.MaxPollAttempts)
	}
}
