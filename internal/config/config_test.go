package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.QAMode() != qa.Quick || cfg.QA.Limits != qa.DefaultLimits {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("ollama host = %q", cfg.Ollama.Host)
	}
	if cfg.Template() != templates.General {
		t.Errorf("template = %q", cfg.Template())
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers.Count != 2 {
		t.Errorf("workers = %d", cfg.Workers.Count)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
qa:
  mode: detailed
  limits:
    max_questions_quick: 3
    max_questions_detailed: 8
ollama:
  model: mistral
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.QAMode() != qa.Detailed || cfg.Ollama.Model != "mistral" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.QA.Limits != (qa.Limits{Quick: 3, Detailed: 8}) {
		t.Errorf("limits = %+v", cfg.QA.Limits)
	}
	// untouched sections keep their defaults
	if cfg.Storage.OutputDir != "outputs" {
		t.Errorf("output dir = %q", cfg.Storage.OutputDir)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[whisper]
model = "medium"

[meeting]
template = "retrospective"

[history]
driver = "postgres"
postgres_url = "postgres://localhost/meetings"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Whisper.Model != "medium" || cfg.History.Driver != "postgres" || cfg.Template() != templates.Retrospective {
		t.Errorf("toml not applied: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEETING_PORT", "7070")
	t.Setenv("MEETING_OLLAMA_MODEL", "qwen2")
	t.Setenv("MEETING_QA_MODE", "detailed")
	t.Setenv("MEETING_TEMPLATE", "Auto")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 || cfg.Ollama.Model != "qwen2" || cfg.QAMode() != qa.Detailed {
		t.Errorf("env not applied: port=%d model=%q mode=%q", cfg.Server.Port, cfg.Ollama.Model, cfg.QA.Mode)
	}
	if cfg.Template() != templates.Auto {
		t.Errorf("template = %q, want auto", cfg.Template())
	}

	t.Setenv("MEETING_PORT", "not-a-number")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "MEETING_PORT") {
		t.Errorf("bad int override = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no workers", func(c *Config) { c.Workers.Count = 0 }, "workers.count"},
		{"bad mode", func(c *Config) { c.QA.Mode = "thorough" }, "qa mode"},
		{"postgres without url", func(c *Config) { c.History.Driver = "postgres" }, "postgres_url"},
		{"unknown driver", func(c *Config) { c.History.Driver = "mysql" }, "history.driver"},
		{"sample window", func(c *Config) { c.QA.SampleMinSeconds = 20 }, "sample_min_seconds"},
		{"unknown template", func(c *Config) { c.Meeting.Template = "party" }, "meeting.template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "config.json", `{}`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for .json config")
	}
}
