// Package capture records meeting audio from a local input device with ffmpeg.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// startupGrace is how long ffmpeg must stay up before a capture counts as started
const startupGrace = 500 * time.Millisecond

// Config selects the capture device
type Config struct {
	// Binary defaults to "ffmpeg".
	Binary      string
	InputFormat string
	Device      string
	Dir         string
	SampleRate  int
}

// Recorder manages ffmpeg-based mic recording. Each capture runs its own
// ffmpeg process.
type Recorder struct {
	cfg Config

	mu    sync.Mutex
	procs map[string]*process
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	done   chan struct{}
	err    error
	handle types.CaptureHandle
}

// NewRecorder creates a recorder writing WAV files into cfg.Dir
func NewRecorder(cfg Config) *Recorder {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Dir == "" {
		cfg.Dir = "recordings"
	}
	return &Recorder{cfg: cfg, procs: make(map[string]*process)}
}

// CheckFFmpeg reports whether the capture binary is installed
func (r *Recorder) CheckFFmpeg() error {
	if _, err := exec.LookPath(r.cfg.Binary); err != nil {
		return fmt.Errorf("%s not found in PATH", r.cfg.Binary)
	}
	return nil
}

// StartCapture starts recording from the configured device. The recording
// runs until StopCapture; ctx only bounds startup.
func (r *Recorder) StartCapture(ctx context.Context) (types.CaptureHandle, error) {
	if err := r.CheckFFmpeg(); err != nil {
		return types.CaptureHandle{}, types.NewError(types.DeviceUnavailable, "start capture", err)
	}
	if err := os.MkdirAll(r.cfg.Dir, 0755); err != nil {
		return types.CaptureHandle{}, types.NewError(types.IOError, "start capture", err)
	}

	now := time.Now()
	handle := types.CaptureHandle{
		ID:        uuid.New().String(),
		Path:      filepath.Join(r.cfg.Dir, fmt.Sprintf("%s_recording.wav", now.Format("20060102_150405"))),
		StartedAt: now,
	}

	cmd := exec.Command(r.cfg.Binary,
		"-f", r.cfg.InputFormat,
		"-i", r.cfg.Device,
		"-ac", "1",
		"-ar", strconv.Itoa(r.cfg.SampleRate),
		"-y",
		handle.Path,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return types.CaptureHandle{}, types.NewError(types.DeviceUnavailable, "start capture", err)
	}
	p := &process{cmd: cmd, stdin: stdin, stderr: &bytes.Buffer{}, done: make(chan struct{}), handle: handle}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return types.CaptureHandle{}, types.NewError(types.DeviceUnavailable, "start capture", err)
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	// ffmpeg exits almost immediately when the device cannot be opened
	select {
	case <-p.done:
		return types.CaptureHandle{}, types.Errorf(types.DeviceUnavailable, "start capture",
			"%s exited during startup: %v\n%s", r.cfg.Binary, p.err, p.stderr.String())
	case <-ctx.Done():
		cmd.Process.Kill()
		<-p.done
		return types.CaptureHandle{}, ctx.Err()
	case <-time.After(startupGrace):
	}

	r.mu.Lock()
	r.procs[handle.ID] = p
	r.mu.Unlock()

	log.Printf("Recording started: %s (%s %s)", handle.Path, r.cfg.InputFormat, r.cfg.Device)
	return handle, nil
}

// StopCapture asks ffmpeg to finish the file and waits for it to exit.
func (r *Recorder) StopCapture(ctx context.Context, h types.CaptureHandle) (types.AudioRef, error) {
	r.mu.Lock()
	p, ok := r.procs[h.ID]
	delete(r.procs, h.ID)
	r.mu.Unlock()
	if !ok {
		return types.AudioRef{}, types.Errorf(types.IOError, "stop capture", "no active capture %s", h.ID)
	}

	// "q" makes ffmpeg write the WAV header and exit cleanly
	io.WriteString(p.stdin, "q\n")
	p.stdin.Close()

	select {
	case <-p.done:
	case <-ctx.Done():
		p.cmd.Process.Kill()
		<-p.done
		return types.AudioRef{}, types.NewError(types.IOError, "stop capture", ctx.Err())
	case <-time.After(10 * time.Second):
		log.Printf("Recording %s: ffmpeg did not exit, killing it", h.ID)
		p.cmd.Process.Kill()
		<-p.done
	}

	info, err := os.Stat(p.handle.Path)
	if err != nil {
		return types.AudioRef{}, types.NewError(types.IOError, "stop capture", err)
	}
	if info.Size() <= 44 {
		return types.AudioRef{}, types.Errorf(types.IOError, "stop capture", "recording %s is empty", p.handle.Path)
	}

	duration := time.Since(p.handle.StartedAt).Seconds()
	log.Printf("Recording stopped: %s (%.1fs, %d bytes)", p.handle.Path, duration, info.Size())
	return types.AudioRef{Path: p.handle.Path, Duration: duration}, nil
}

// Active returns the number of running captures
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}
