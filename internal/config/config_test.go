package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
relay:
  min_speech_length: 10
transcription:
  backend: whisper
  endpoint: http://localhost:9090/transcribe
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Relay.MinSpeechLength != 10 {
		t.Errorf("min_speech_length = %d, want 10", cfg.Relay.MinSpeechLength)
	}
	if cfg.Transcription.Backend != "whisper" {
		t.Errorf("backend = %q, want whisper", cfg.Transcription.Backend)
	}
	// Untouched sections keep defaults.
	if cfg.Relay.TranscribeWorkers != 2 {
		t.Errorf("transcribe_workers = %d, want default 2", cfg.Relay.TranscribeWorkers)
	}
	if cfg.Dashboard.UpdateURL == "" {
		t.Error("dashboard update_url default missing")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"bad port":          "server:\n  port: -1\n",
		"unknown stt":       "transcription:\n  backend: carrier-pigeon\n",
		"whisper no url":    "transcription:\n  backend: whisper\n",
		"unknown sentiment": "sentiment:\n  backend: vibes\n",
		"zero workers":      "relay:\n  transcribe_workers: 0\n",
		"bad dashboard":     "dashboard:\n  timeout_ms: 0\n",
	}

	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("VOXRELAY_DB_PATH", "/tmp/test-relay.db")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/tmp/test-relay.db" {
		t.Errorf("db path = %q, want env override", cfg.Storage.Path)
	}
}
