package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ANALYSIS_PROVIDERS", "")
	t.Setenv("ANALYSIS_PROVIDER_PRIORITY", "")
	t.Setenv("PROVIDER_RATE_LIMIT", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if len(cfg.Providers) != 3 {
		t.Fatalf("expected 3 default providers, got %v", cfg.Providers)
	}
	if len(cfg.ProviderPriority) != len(cfg.Providers) {
		t.Fatalf("expected priority to default to provider order")
	}
	if cfg.RateLimit != 30 {
		t.Fatalf("expected default rate limit 30, got %d", cfg.RateLimit)
	}
	if cfg.RequestDeadline != 90*time.Second {
		t.Fatalf("expected default deadline 90s, got %s", cfg.RequestDeadline)
	}
}

func TestLoadProviderPriorityOverride(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDERS", "claude-vision, openai-vision")
	t.Setenv("ANALYSIS_PROVIDER_PRIORITY", "openai-vision,claude-vision")

	cfg := Load()
	if len(cfg.ProviderPriority) != 2 || cfg.ProviderPriority[0] != "openai-vision" {
		t.Fatalf("unexpected priority: %v", cfg.ProviderPriority)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("PROVIDER_RETRY_BASE_DELAY", "notaduration")

	cfg := Load()
	if cfg.RetryBaseDelay != 300*time.Millisecond {
		t.Fatalf("expected fallback base delay, got %s", cfg.RetryBaseDelay)
	}
}
