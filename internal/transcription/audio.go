package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// NormalizeAudio converts any audio file to 16kHz mono WAV format in tempDir
func NormalizeAudio(ctx context.Context, inputPath, tempDir string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", types.NewError(types.IOError, "normalize audio", err)
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", types.NewError(types.IOError, "normalize audio", err)
	}

	outputPath := filepath.Join(tempDir, fmt.Sprintf("normalized_%s.wav", uuid.New().String()))

	// FFmpeg command: convert to 16kHz mono WAV
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y", // Overwrite output
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return "", types.Errorf(types.IOError, "normalize audio", "ffmpeg failed: %v\nOutput: %s", err, tail(output))
	}

	return outputPath, nil
}

// AudioDuration returns the length of an audio file in seconds
func AudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, types.NewError(types.IOError, "read duration", err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, types.NewError(types.IOError, "read duration", err)
	}
	return d, nil
}

var supportedFormats = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma", ".mp4"}

// ValidateAudioFormat checks if the file format is supported
func ValidateAudioFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// FFmpegSnippets cuts WAV clips out of meeting audio for speaker questions
type FFmpegSnippets struct{}

// Extract returns span of audio as WAV bytes
func (FFmpegSnippets) Extract(ctx context.Context, audio types.AudioRef, span types.TimeSpan) ([]byte, error) {
	if !span.Valid() || span.Duration() <= 0 {
		return nil, types.Errorf(types.IOError, "extract snippet", "invalid span %s", span)
	}
	if _, err := os.Stat(audio.Path); err != nil {
		return nil, types.NewError(types.IOError, "extract snippet", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", formatSeconds(span.Start),
		"-t", formatSeconds(span.Duration()),
		"-i", audio.Path,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, types.Errorf(types.IOError, "extract snippet", "ffmpeg failed: %v\nOutput: %s", err, tail(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// tail keeps the end of noisy tool output for error messages
func tail(b []byte) string {
	const keep = 2000
	if len(b) > keep {
		b = b[len(b)-keep:]
	}
	return strings.TrimSpace(string(b))
}
