package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LEDGER_BACKEND", "")

	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.LedgerBackend != "http" {
		t.Errorf("expected http ledger backend, got %q", cfg.LedgerBackend)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("expected anthropic provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMModel != "claude-3-5-haiku-latest" {
		t.Errorf("unexpected default model %q", cfg.LLMModel)
	}
}

func TestLoad_GeminiDefaultModel(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_MODEL", "")

	cfg := config.Load()

	if cfg.LLMProvider != "gemini" {
		t.Errorf("expected gemini provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMModel != "gemini-2.0-flash" {
		t.Errorf("unexpected default model %q", cfg.LLMModel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("expected fallback of 2 retries, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nKHATA_TEST_A=from-file\nKHATA_TEST_B=\"quoted\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KHATA_TEST_A", "from-env")
	t.Setenv("KHATA_TEST_B", "")
	os.Unsetenv("KHATA_TEST_B")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("KHATA_TEST_A"); got != "from-env" {
		t.Errorf("expected env to win, got %q", got)
	}
	if got := os.Getenv("KHATA_TEST_B"); got != "quoted" {
		t.Errorf("expected quoted value unwrapped, got %q", got)
	}
}
