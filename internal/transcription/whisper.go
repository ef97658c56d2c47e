package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// WhisperConfig selects the Whisper model and runtime
type WhisperConfig struct {
	Model    string
	Python   string
	Language string
	Device   string
	TempDir  string
}

// WhisperTranscriber wraps Python's OpenAI Whisper for transcription
type WhisperTranscriber struct {
	cfg WhisperConfig
	mu  sync.Mutex // one model in memory at a time
}

// NewWhisperTranscriber creates a new transcriber using Python Whisper
func NewWhisperTranscriber(cfg WhisperConfig) *WhisperTranscriber {
	cfg.Model = modelName(cfg.Model)
	if cfg.Python == "" {
		cfg.Python = "python"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}

	log.Printf("Initializing Python Whisper with model: %s", cfg.Model)
	log.Printf("Whisper will be called via: %s -m whisper", cfg.Python)

	return &WhisperTranscriber{cfg: cfg}
}

// modelName maps a model name or ggml file path ("ggml-small.bin") to a
// Whisper model name.
func modelName(s string) string {
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(s, name) {
			return name
		}
	}
	return "small"
}

// Check verifies that the whisper module can be imported
func (wt *WhisperTranscriber) Check(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, wt.cfg.Python, "-c", "import whisper").CombinedOutput()
	if err != nil {
		return fmt.Errorf("whisper not importable with %s: %v (%s)", wt.cfg.Python, err, tail(out))
	}
	return nil
}

// Transcribe processes an audio file and returns timestamped segments
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audio types.AudioRef) (*types.TranscriptionResult, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	log.Printf("Transcribing with Python Whisper: %s", audio.Path)

	normalized, err := NormalizeAudio(ctx, audio.Path, wt.cfg.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(normalized)

	outDir, err := os.MkdirTemp(wt.cfg.TempDir, "whisper_output_")
	if err != nil {
		return nil, types.NewError(types.IOError, "whisper", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{"-m", "whisper",
		normalized,
		"--model", wt.cfg.Model,
		"--output_dir", outDir,
		"--output_format", "json", // Get JSON for segments
		"--device", wt.cfg.Device,
		"--fp16", "False", // Disable fp16 for CPU compatibility
	}
	if wt.cfg.Language != "" && wt.cfg.Language != "auto" {
		args = append(args, "--language", wt.cfg.Language)
	}
	cmd := exec.CommandContext(ctx, wt.cfg.Python, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// python itself could not be started
			return nil, types.NewError(types.ServiceUnavailable, "whisper", err)
		}
		return nil, types.Errorf(types.ModelError, "whisper", "transcription failed: %v\nOutput: %s", err, tail(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(normalized), filepath.Ext(normalized))
	jsonData, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return nil, types.Errorf(types.ModelError, "whisper", "failed to read whisper output: %v", err)
	}

	result, err := parseWhisperOutput(jsonData)
	if err != nil {
		return nil, err
	}
	if audio.Duration > result.Duration {
		result.Duration = audio.Duration
	}

	log.Printf("Transcription completed: %d segments, %.2fs duration", len(result.Segments), result.Duration)
	return result, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperOutput(data []byte) (*types.TranscriptionResult, error) {
	var out WhisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, types.Errorf(types.ModelError, "whisper", "failed to parse whisper JSON: %v", err)
	}

	segments := make([]types.RawTranscriptSegment, 0, len(out.Segments))
	var duration float64
	for _, seg := range out.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		span := types.TimeSpan{Start: seg.Start, End: seg.End}
		if span.Start < 0 || span.End < span.Start {
			return nil, types.Errorf(types.ModelError, "whisper", "segment %d has invalid span %s", seg.ID, span)
		}
		segments = append(segments, types.RawTranscriptSegment{Span: span, Text: text})
		if seg.End > duration {
			duration = seg.End
		}
	}

	return &types.TranscriptionResult{
		Segments: segments,
		Language: out.Language,
		Duration: duration,
	}, nil
}
