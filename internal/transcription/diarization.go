package transcription

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

//go:embed assets/pyannote_diarize.py
var diarizeScript []byte

// exit codes of the helper script that mean the runtime is missing rather
// than that inference failed
const (
	exitNotInstalled = 3
	exitNoPipeline   = 4
)

// DiarizerConfig selects the pyannote pipeline and speaker bounds
type DiarizerConfig struct {
	Model       string
	Python      string
	HFToken     string
	MinSpeakers int
	MaxSpeakers int
	Device      string
	TempDir     string
}

// PyannoteDiarizer finds speaker turns with pyannote.audio through a helper
// script run by Python
type PyannoteDiarizer struct {
	cfg DiarizerConfig

	once       sync.Once
	scriptPath string
	scriptErr  error
}

// NewPyannoteDiarizer creates a diarizer; the helper script is written to
// TempDir on first use.
func NewPyannoteDiarizer(cfg DiarizerConfig) *PyannoteDiarizer {
	if cfg.Model == "" {
		cfg.Model = "pyannote/speaker-diarization-3.1"
	}
	if cfg.Python == "" {
		cfg.Python = "python"
	}
	if cfg.Device == "" {
		cfg.Device = "auto"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}
	return &PyannoteDiarizer{cfg: cfg}
}

func (d *PyannoteDiarizer) script() (string, error) {
	d.once.Do(func() {
		if err := os.MkdirAll(d.cfg.TempDir, 0755); err != nil {
			d.scriptErr = err
			return
		}
		path := filepath.Join(d.cfg.TempDir, "pyannote_diarize.py")
		d.scriptErr = os.WriteFile(path, diarizeScript, 0644)
		d.scriptPath = path
	})
	return d.scriptPath, d.scriptErr
}

// Diarize returns speaker turns sorted by start time
func (d *PyannoteDiarizer) Diarize(ctx context.Context, audio types.AudioRef) ([]types.SpeakerSegment, error) {
	if _, err := os.Stat(audio.Path); err != nil {
		return nil, types.NewError(types.IOError, "diarize", err)
	}
	script, err := d.script()
	if err != nil {
		return nil, types.NewError(types.IOError, "diarize", err)
	}

	args := []string{script, audio.Path, "--model", d.cfg.Model, "--device", d.cfg.Device}
	if d.cfg.MinSpeakers > 0 {
		args = append(args, "--min-speakers", strconv.Itoa(d.cfg.MinSpeakers))
	}
	if d.cfg.MaxSpeakers > 0 {
		args = append(args, "--max-speakers", strconv.Itoa(d.cfg.MaxSpeakers))
	}

	log.Printf("Diarizing with pyannote: %s", audio.Path)
	cmd := exec.CommandContext(ctx, d.cfg.Python, args...)
	cmd.Env = os.Environ()
	if d.cfg.HFToken != "" {
		cmd.Env = append(cmd.Env, "HF_TOKEN="+d.cfg.HFToken)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, types.NewError(types.ServiceUnavailable, "diarize", err)
		}
		switch exitErr.ExitCode() {
		case exitNotInstalled, exitNoPipeline:
			return nil, types.Errorf(types.ServiceUnavailable, "diarize", "%s", tail(stderr.Bytes()))
		}
		return nil, types.Errorf(types.ModelError, "diarize", "pyannote failed: %v\nOutput: %s", err, tail(stderr.Bytes()))
	}

	turns, err := parseDiarization(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	log.Printf("Diarization complete: %d turns", len(turns))
	return turns, nil
}

type diarizationOutput struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

func parseDiarization(data []byte) ([]types.SpeakerSegment, error) {
	var out diarizationOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, types.Errorf(types.ModelError, "diarize", "failed to parse diarization JSON: %v", err)
	}

	turns := make([]types.SpeakerSegment, 0, len(out.Segments))
	for i, s := range out.Segments {
		span := types.TimeSpan{Start: s.Start, End: s.End}
		if !span.Valid() {
			return nil, types.Errorf(types.ModelError, "diarize", "turn %d has invalid span %s", i, span)
		}
		if s.Speaker == "" {
			return nil, types.NewError(types.ModelError, "diarize", fmt.Errorf("turn %d has no speaker", i))
		}
		turns = append(turns, types.SpeakerSegment{Span: span, Speaker: s.Speaker})
	}
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].Span.Start < turns[j].Span.Start })
	return turns, nil
}
