package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Pipeline.WorkDir != "temp" || cfg.Pipeline.RetryCount != 2 || cfg.Pipeline.RetryDelaySec != 3 {
		t.Errorf("pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.MaxScenes != 5 {
		t.Errorf("MaxScenes = %d", cfg.Pipeline.MaxScenes)
	}
	if cfg.Image.Width != 540 || cfg.Image.Height != 960 || cfg.Image.Model != "flux" || cfg.Image.Seed != 42 {
		t.Errorf("image defaults: %+v", cfg.Image)
	}
	if cfg.Video.ClipDurationSec != 5 || cfg.Video.FPS != 30 || cfg.Video.Codec != "libx264" {
		t.Errorf("video defaults: %+v", cfg.Video)
	}
	if cfg.Compose.PollIntervalSec != 15 || cfg.Compose.PollAttempts != 10 {
		t.Errorf("compose defaults: %+v", cfg.Compose)
	}
	if cfg.Sheets.SheetName != "youtube" || cfg.Sheets.DataRange != "A:I" {
		t.Errorf("sheets defaults: %+v", cfg.Sheets)
	}
	if cfg.Upload.CategoryID != "22" || cfg.Upload.Privacy != "public" {
		t.Errorf("upload defaults: %+v", cfg.Upload)
	}
}

func TestLoadOverridesAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
pipeline:
  retry_count: 5
  stop_on_error: true
image:
  width: 1080
  height: 1920
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.RetryCount != 5 || !cfg.Pipeline.StopOnError {
		t.Errorf("overrides not applied: %+v", cfg.Pipeline)
	}
	if cfg.Image.Width != 1080 || cfg.Image.Height != 1920 {
		t.Errorf("image overrides not applied: %+v", cfg.Image)
	}
	// Unspecified sections still get defaults.
	if cfg.Image.Model != "flux" || cfg.Sheets.SheetName != "youtube" {
		t.Errorf("defaults not filled: image=%+v sheets=%+v", cfg.Image, cfg.Sheets)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config file should error")
	}
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "k1")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-1")

	cfg := Default()
	if cfg.Secrets.AnthropicAPIKey != "k1" || cfg.Secrets.SpreadsheetID != "sheet-1" {
		t.Errorf("secrets not read from env: %+v", cfg.Secrets)
	}
}
