package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OBJECT_STORE", "PROFILE_STORE", "DATABASE_URL", "LLM_PROVIDER", "ASSET_FETCH_TIMEOUT", "SUBSCRIPTION_MONTHLY_CREDITS", "ENV"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.ObjectStoreType != "local" || cfg.ProfileStore != "memory" {
		t.Fatalf("unexpected stores: %q %q", cfg.ObjectStoreType, cfg.ProfileStore)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai default, got %q", cfg.LLMProvider)
	}
	if cfg.AssetFetchTimeout != 5*time.Second || cfg.SubscriptionMonthlyCredits != 60 {
		t.Fatalf("unexpected defaults: %v %d", cfg.AssetFetchTimeout, cfg.SubscriptionMonthlyCredits)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Setenv("OBJECT_STORE", " GCS ")
	t.Setenv("DATABASE_URL", "postgres://localhost/coa")
	t.Setenv("PROFILE_STORE", "")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("ASSET_FETCH_TIMEOUT", "3")
	t.Setenv("SUBSCRIPTION_MONTHLY_CREDITS", "-4")
	t.Setenv("ENV", "prod")

	cfg := Load()
	if cfg.ObjectStoreType != "gcs" {
		t.Fatalf("expected gcs, got %q", cfg.ObjectStoreType)
	}
	if cfg.ProfileStore != "postgres" {
		t.Fatalf("expected postgres profile store with a database, got %q", cfg.ProfileStore)
	}
	if cfg.LLMProvider != "vertex" {
		t.Fatalf("expected vertex, got %q", cfg.LLMProvider)
	}
	if cfg.AssetFetchTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %v", cfg.AssetFetchTimeout)
	}
	if cfg.SubscriptionMonthlyCredits != 60 {
		t.Fatalf("expected invalid credits to fall back, got %d", cfg.SubscriptionMonthlyCredits)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nCOA_TEST_KEY=\"hello\"\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("COA_TEST_KEY", "")
	loadEnvFiles(filepath.Join(dir, "missing"), path)
	if got := os.Getenv("COA_TEST_KEY"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line string
		key  string
		val  string
		ok   bool
	}{
		{line: "PORT=9090", key: "PORT", val: "9090", ok: true},
		{line: "export LLM_PROVIDER=vertex", key: "LLM_PROVIDER", val: "vertex", ok: true},
		{line: `FREE_WATERMARK_TEXT='Made with COA # free'`, key: "FREE_WATERMARK_TEXT", val: "Made with COA # free", ok: true},
		{line: "S3_PREFIX=coa # bucket prefix", key: "S3_PREFIX", val: "coa", ok: true},
		{line: "# comment"},
		{line: "BAD KEY=1"},
		{line: "novalue"},
	}
	for _, tc := range cases {
		key, val, ok := parseEnvLine(tc.line)
		if ok != tc.ok || key != tc.key || val != tc.val {
			t.Fatalf("parseEnvLine(%q) = %q, %q, %v", tc.line, key, val, ok)
		}
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("COA_TEST_KEEP=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("COA_TEST_KEEP", "process")
	loadEnvFiles(path)
	if got := os.Getenv("COA_TEST_KEEP"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
