// Package app assembles the pipeline and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/capture"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/cleanup"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/config"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/queue"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/summary"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/transcription"
)

// App holds every long-lived component of a server or CLI process
type App struct {
	Config *config.Config

	Controller  *pipeline.Controller
	Pool        *queue.WorkerPool
	History     storage.History
	Local       *storage.LocalStorage
	Drive       *storage.DriveClient
	Recorder    *capture.Recorder
	Transcriber *transcription.WhisperTranscriber
	Diarizer    *transcription.PyannoteDiarizer
	Summarizer  *summary.OllamaSummarizer
	Cleanup     *cleanup.Scheduler

	cancel context.CancelFunc
}

// New builds the application. Google Drive is optional: when it cannot be
// set up meetings are saved locally only.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cleanup.EnsureDirs(cfg.Storage.TempDir, UploadDir(cfg), cfg.Storage.OutputDir, cfg.Audio.RecordingDir); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	history, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		History: history,
		Local:   storage.NewLocalStorage(cfg.Storage.OutputDir),
		Pool:    queue.NewWorkerPool(cfg.Workers.Count, cfg.Workers.QueueSize),
		Recorder: capture.NewRecorder(capture.Config{
			InputFormat: cfg.Audio.InputFormat,
			Device:      cfg.Audio.InputDevice,
			Dir:         cfg.Audio.RecordingDir,
			SampleRate:  cfg.Audio.SampleRate,
		}),
		Transcriber: transcription.NewWhisperTranscriber(transcription.WhisperConfig{
			Model:    cfg.Whisper.Model,
			Python:   cfg.Whisper.Python,
			Language: cfg.Whisper.Language,
			Device:   cfg.Whisper.Device,
			TempDir:  cfg.Storage.TempDir,
		}),
		Diarizer: transcription.NewPyannoteDiarizer(transcription.DiarizerConfig{
			Model:       cfg.Diarization.Model,
			Python:      cfg.Diarization.Python,
			HFToken:     cfg.Diarization.HFToken,
			MinSpeakers: cfg.Diarization.MinSpeakers,
			MaxSpeakers: cfg.Diarization.MaxSpeakers,
			TempDir:     cfg.Storage.TempDir,
		}),
		Summarizer: summary.NewOllamaSummarizer(summary.Config{
			Host:        cfg.Ollama.Host,
			Model:       cfg.Ollama.Model,
			Temperature: cfg.Ollama.Temperature,
			MaxTokens:   cfg.Ollama.MaxTokens,
			Timeout:     cfg.OllamaTimeout(),
		}),
	}
	a.Drive = openDrive(ctx, cfg)

	// local first so the notes path is known to Drive and history
	sinks := []pipeline.Sink{a.Local}
	if a.Drive != nil {
		sinks = append(sinks, a.Drive)
	}
	sinks = append(sinks, a.History)

	a.Controller, err = pipeline.New(pipeline.Options{
		Source:          a.Recorder,
		Transcriber:     a.Transcriber,
		Diarizer:        a.Diarizer,
		Summarizer:      a.Summarizer,
		Snippets:        transcription.FFmpegSnippets{},
		Sinks:           sinks,
		Pool:            a.Pool,
		Detector:        qa.NewDetector(qa.DefaultRules(cfg.SampleOptions())...),
		Limits:          cfg.QA.Limits,
		DefaultMode:     cfg.QAMode(),
		DefaultTemplate: cfg.Template(),
		Retry:           pipeline.RetryPolicy{MaxRetries: cfg.Retry.MaxRetries, Backoff: pipeline.DefaultRetry.Backoff},
		AutoSkipAfter:   cfg.AutoSkipAfter(),
	})
	if err != nil {
		history.Close()
		return nil, err
	}

	a.Cleanup = cleanup.NewScheduler(
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour,
		cfg.Storage.TempDir,
	)
	a.Cleanup.InUse = a.activeAudio
	return a, nil
}

// UploadDir is where uploaded and downloaded audio waits for processing
func UploadDir(cfg *config.Config) string {
	return filepath.Join(cfg.Storage.TempDir, "uploads")
}

// Start launches the worker pool and, when sweep is set, the temp cleanup.
func (a *App) Start(ctx context.Context, sweep bool) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Pool.Start(ctx)
	if sweep {
		go a.Cleanup.Run(ctx)
	}
}

// Close stops every run and releases storage
func (a *App) Close() error {
	a.Controller.Close()
	a.Pool.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	a.Controller.Bus().Close()
	return a.History.Close()
}

// activeAudio lists audio files that runs still in flight depend on
func (a *App) activeAudio() map[string]bool {
	paths := make(map[string]bool)
	for _, run := range a.Controller.Runs() {
		if !run.State.Terminal() && run.Audio.Path != "" {
			paths[filepath.Clean(run.Audio.Path)] = true
		}
	}
	return paths
}

func openHistory(ctx context.Context, cfg *config.Config) (storage.History, error) {
	switch cfg.History.Driver {
	case "postgres":
		h, err := storage.NewPostgresHistory(ctx, cfg.History.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres history: %w", err)
		}
		return h, nil
	default:
		if dir := filepath.Dir(cfg.Storage.Database); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		h, err := storage.NewMetadataDB(cfg.Storage.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return h, nil
	}
}

func openDrive(ctx context.Context, cfg *config.Config) *storage.DriveClient {
	if !cfg.GoogleDrive.Enabled {
		return nil
	}
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); errors.Is(err, os.ErrNotExist) {
		log.Println("Google Drive credentials not found - saving locally only")
		return nil
	}
	client, err := storage.NewDriveClient(ctx, cfg.GoogleDrive.CredentialsFile, cfg.GoogleDrive.TokenFile, cfg.GoogleDrive.FolderName)
	if err != nil {
		log.Printf("WARNING: Google Drive not available: %v", err)
		log.Println("Meetings will only be saved locally")
		return nil
	}
	log.Println("Google Drive integration enabled")
	return client
}
