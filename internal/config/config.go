package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port" toml:"port"`
		Host string `yaml:"host" toml:"host"`
	} `yaml:"server" toml:"server"`

	Whisper struct {
		Model    string `yaml:"model" toml:"model"`
		Python   string `yaml:"python" toml:"python"`
		Language string `yaml:"language" toml:"language"`
		Device   string `yaml:"device" toml:"device"`
	} `yaml:"whisper" toml:"whisper"`

	Diarization struct {
		Model       string `yaml:"model" toml:"model"`
		Python      string `yaml:"python" toml:"python"`
		HFToken     string `yaml:"hf_token" toml:"hf_token"`
		MinSpeakers int    `yaml:"min_speakers" toml:"min_speakers"`
		MaxSpeakers int    `yaml:"max_speakers" toml:"max_speakers"`
	} `yaml:"diarization" toml:"diarization"`

	Ollama struct {
		Host           string  `yaml:"host" toml:"host"`
		Model          string  `yaml:"model" toml:"model"`
		Temperature    float32 `yaml:"temperature" toml:"temperature"`
		MaxTokens      int     `yaml:"max_tokens" toml:"max_tokens"`
		TimeoutSeconds int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
	} `yaml:"ollama" toml:"ollama"`

	Audio struct {
		InputFormat  string `yaml:"input_format" toml:"input_format"`
		InputDevice  string `yaml:"input_device" toml:"input_device"`
		RecordingDir string `yaml:"recording_dir" toml:"recording_dir"`
		SampleRate   int    `yaml:"sample_rate" toml:"sample_rate"`
	} `yaml:"audio" toml:"audio"`

	Meeting struct {
		// Template is a template name or "auto"
		Template string `yaml:"template" toml:"template"`
	} `yaml:"meeting" toml:"meeting"`

	QA struct {
		Mode                 string    `yaml:"mode" toml:"mode"`
		Limits               qa.Limits `yaml:"limits" toml:"limits"`
		AutoSkipAfterSeconds int       `yaml:"auto_skip_after_seconds" toml:"auto_skip_after_seconds"`
		SampleMinSeconds     float64   `yaml:"sample_min_seconds" toml:"sample_min_seconds"`
		SampleMaxSeconds     float64   `yaml:"sample_max_seconds" toml:"sample_max_seconds"`
		SampleClipSeconds    float64   `yaml:"sample_clip_seconds" toml:"sample_clip_seconds"`
	} `yaml:"qa" toml:"qa"`

	Workers struct {
		Count     int `yaml:"count" toml:"count"`
		QueueSize int `yaml:"queue_size" toml:"queue_size"`
	} `yaml:"workers" toml:"workers"`

	Retry struct {
		MaxRetries int `yaml:"max_retries" toml:"max_retries"`
	} `yaml:"retry" toml:"retry"`

	Storage struct {
		TempDir   string `yaml:"temp_dir" toml:"temp_dir"`
		OutputDir string `yaml:"output_dir" toml:"output_dir"`
		Database  string `yaml:"database" toml:"database"`
	} `yaml:"storage" toml:"storage"`

	History struct {
		// Driver is "sqlite" or "postgres".
		Driver      string `yaml:"driver" toml:"driver"`
		PostgresURL string `yaml:"postgres_url" toml:"postgres_url"`
	} `yaml:"history" toml:"history"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes" toml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours" toml:"max_age_hours"`
	} `yaml:"cleanup" toml:"cleanup"`

	GoogleDrive struct {
		Enabled         bool   `yaml:"enabled" toml:"enabled"`
		CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`
		TokenFile       string `yaml:"token_file" toml:"token_file"`
		FolderName      string `yaml:"folder_name" toml:"folder_name"`
	} `yaml:"google_drive" toml:"google_drive"`

	Limits struct {
		MaxFileSizeMB      int `yaml:"max_file_size_mb" toml:"max_file_size_mb"`
		MaxDurationMinutes int `yaml:"max_duration_minutes" toml:"max_duration_minutes"`
	} `yaml:"limits" toml:"limits"`
}

// Default returns a configuration with every field set
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080

	cfg.Whisper.Model = "small"
	cfg.Whisper.Python = "python"
	cfg.Whisper.Language = "en"
	cfg.Whisper.Device = "cpu"

	cfg.Diarization.Model = "pyannote/speaker-diarization-3.1"
	cfg.Diarization.Python = "python"

	cfg.Ollama.Host = "http://localhost:11434"
	cfg.Ollama.Model = "llama3.2"
	cfg.Ollama.Temperature = 0.3
	cfg.Ollama.MaxTokens = 2000
	cfg.Ollama.TimeoutSeconds = 300

	cfg.Audio.InputFormat = defaultInputFormat()
	cfg.Audio.InputDevice = defaultInputDevice()
	cfg.Audio.RecordingDir = "recordings"
	cfg.Audio.SampleRate = 16000

	cfg.Meeting.Template = string(templates.General)

	cfg.QA.Mode = string(qa.Quick)
	cfg.QA.Limits = qa.DefaultLimits
	cfg.QA.SampleMinSeconds = qa.DefaultSampleOptions.MinSeconds
	cfg.QA.SampleMaxSeconds = qa.DefaultSampleOptions.MaxSeconds
	cfg.QA.SampleClipSeconds = qa.DefaultSampleOptions.ClipSeconds

	cfg.Workers.Count = 2
	cfg.Workers.QueueSize = 100
	cfg.Retry.MaxRetries = 2

	cfg.Storage.TempDir = "temp"
	cfg.Storage.OutputDir = "outputs"
	cfg.Storage.Database = "meetings.db"

	cfg.History.Driver = "sqlite"

	cfg.Cleanup.IntervalMinutes = 60
	cfg.Cleanup.MaxAgeHours = 24

	cfg.GoogleDrive.CredentialsFile = "credentials.json"
	cfg.GoogleDrive.TokenFile = "token.json"
	cfg.GoogleDrive.FolderName = "Meeting Notes"

	cfg.Limits.MaxFileSizeMB = 500
	cfg.Limits.MaxDurationMinutes = 180
	return cfg
}

// Load reads path (YAML or TOML by extension) over the defaults, then
// applies .env and MEETING_* environment overrides. An empty path or a
// missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return err
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"MEETING_HOST":               &cfg.Server.Host,
		"MEETING_WHISPER_MODEL":      &cfg.Whisper.Model,
		"MEETING_PYTHON":             &cfg.Whisper.Python,
		"MEETING_OLLAMA_HOST":        &cfg.Ollama.Host,
		"MEETING_OLLAMA_MODEL":       &cfg.Ollama.Model,
		"MEETING_INPUT_DEVICE":       &cfg.Audio.InputDevice,
		"MEETING_QA_MODE":            &cfg.QA.Mode,
		"MEETING_TEMPLATE":           &cfg.Meeting.Template,
		"MEETING_OUTPUT_DIR":         &cfg.Storage.OutputDir,
		"MEETING_TEMP_DIR":           &cfg.Storage.TempDir,
		"MEETING_DATABASE":           &cfg.Storage.Database,
		"MEETING_HISTORY_DRIVER":     &cfg.History.Driver,
		"MEETING_POSTGRES_URL":       &cfg.History.PostgresURL,
		"MEETING_GDRIVE_CREDENTIALS": &cfg.GoogleDrive.CredentialsFile,
		"HF_TOKEN":                   &cfg.Diarization.HFToken,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MEETING_PORT":             &cfg.Server.Port,
		"MEETING_WORKERS":          &cfg.Workers.Count,
		"MEETING_MAX_RETRIES":      &cfg.Retry.MaxRetries,
		"MEETING_MAX_FILE_SIZE_MB": &cfg.Limits.MaxFileSizeMB,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.History.PostgresURL == "" {
		cfg.History.PostgresURL = v
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Workers.Count < 1 {
		problems = append(problems, "workers.count must be at least 1")
	}
	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "retry.max_retries must not be negative")
	}
	if _, err := qa.ParseMode(c.QA.Mode); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := templates.Parse(c.Meeting.Template); err != nil {
		problems = append(problems, "meeting.template: "+err.Error())
	}
	if c.QA.Limits.Quick < 0 || c.QA.Limits.Detailed < 0 {
		problems = append(problems, "qa.limits must not be negative")
	}
	if c.QA.SampleMinSeconds > c.QA.SampleMaxSeconds {
		problems = append(problems, "qa.sample_min_seconds exceeds qa.sample_max_seconds")
	}
	switch c.History.Driver {
	case "sqlite":
	case "postgres":
		if c.History.PostgresURL == "" {
			problems = append(problems, "history.postgres_url is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown history.driver %q", c.History.Driver))
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		problems = append(problems, "limits.max_file_size_mb must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// QAMode returns the configured clarification mode
func (c *Config) QAMode() qa.Mode {
	m, _ := qa.ParseMode(c.QA.Mode)
	return m
}

// Template returns the default meeting template
func (c *Config) Template() templates.MeetingType {
	t, _ := templates.Parse(c.Meeting.Template)
	return t
}

// SampleOptions returns the speaker sample window settings
func (c *Config) SampleOptions() qa.SampleOptions {
	return qa.SampleOptions{
		MinSeconds:  c.QA.SampleMinSeconds,
		MaxSeconds:  c.QA.SampleMaxSeconds,
		ClipSeconds: c.QA.SampleClipSeconds,
	}
}

// AutoSkipAfter returns the idle time after which open questions are skipped
func (c *Config) AutoSkipAfter() time.Duration {
	return time.Duration(c.QA.AutoSkipAfterSeconds) * time.Second
}

// OllamaTimeout bounds a single summarization request
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSeconds) * time.Second
}
