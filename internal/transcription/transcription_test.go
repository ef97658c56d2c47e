package transcription

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

func TestParseWhisperOutput(t *testing.T) {
	data := []byte(`{
		"text": " Hello there. General Kenobi.",
		"language": "en",
		"segments": [
			{"id": 0, "start": 0.0, "end": 2.5, "text": " Hello there."},
			{"id": 1, "start": 2.5, "end": 2.5, "text": "  "},
			{"id": 2, "start": 2.5, "end": 4.0, "text": " General Kenobi."}
		]
	}`)

	res, err := parseWhisperOutput(data)
	if err != nil {
		t.Fatalf("parseWhisperOutput: %v", err)
	}
	if res.Language != "en" || res.Duration != 4.0 {
		t.Errorf("language %q duration %v", res.Language, res.Duration)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2 (blank dropped)", len(res.Segments))
	}
	if res.Segments[1].Text != "General Kenobi." || res.Segments[1].Span != (types.TimeSpan{Start: 2.5, End: 4}) {
		t.Errorf("segment = %+v", res.Segments[1])
	}
}

func TestParseWhisperOutputErrors(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"segments": [{"id": 0, "start": 3, "end": 1, "text": "backwards"}]}`,
	} {
		_, err := parseWhisperOutput([]byte(data))
		if types.KindOf(err) != types.ModelError {
			t.Errorf("parse(%s) = %v, want ModelError", data, err)
		}
	}
}

func TestParseDiarization(t *testing.T) {
	data := []byte(`{"segments": [
		{"start": 5.0, "end": 9.0, "speaker": "SPEAKER_01"},
		{"start": 0.0, "end": 5.0, "speaker": "SPEAKER_00"}
	]}`)
	turns, err := parseDiarization(data)
	if err != nil {
		t.Fatalf("parseDiarization: %v", err)
	}
	if len(turns) != 2 || turns[0].Speaker != "SPEAKER_00" || turns[1].Span.Start != 5 {
		t.Errorf("turns = %+v", turns)
	}

	for _, bad := range []string{
		`{"segments": [{"start": 1, "end": 1, "speaker": "A"}]}`,
		`{"segments": [{"start": 0, "end": 1, "speaker": ""}]}`,
		`[]`,
	} {
		if _, err := parseDiarization([]byte(bad)); types.KindOf(err) != types.ModelError {
			t.Errorf("parseDiarization(%s) = %v, want ModelError", bad, err)
		}
	}
}

func TestMissingAudioIsIOError(t *testing.T) {
	missing := types.AudioRef{Path: filepath.Join(t.TempDir(), "missing.wav")}
	ctx := context.Background()

	d := NewPyannoteDiarizer(DiarizerConfig{TempDir: t.TempDir()})
	if _, err := d.Diarize(ctx, missing); types.KindOf(err) != types.IOError {
		t.Errorf("Diarize = %v, want IOError", err)
	}

	w := NewWhisperTranscriber(WhisperConfig{TempDir: t.TempDir()})
	if _, err := w.Transcribe(ctx, missing); types.KindOf(err) != types.IOError {
		t.Errorf("Transcribe = %v, want IOError", err)
	}

	span := types.TimeSpan{Start: 0, End: 5}
	if _, err := (FFmpegSnippets{}).Extract(ctx, missing, span); types.KindOf(err) != types.IOError {
		t.Errorf("Extract = %v, want IOError", err)
	}
}

func TestValidateAudioFormat(t *testing.T) {
	tests := map[string]bool{
		"meeting.mp3": true,
		"MEETING.WAV": true,
		"call.m4a":    true,
		"notes.txt":   false,
		"archive":     false,
		"clip.webm":   true,
	}
	for name, want := range tests {
		if got := ValidateAudioFormat(name); got != want {
			t.Errorf("ValidateAudioFormat(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestModelName(t *testing.T) {
	tests := map[string]string{
		"":                     "small",
		"medium":               "medium",
		"models/ggml-base.bin": "base",
		"large-v3":             "large",
	}
	for in, want := range tests {
		if got := modelName(in); got != want {
			t.Errorf("modelName(%q) = %q, want %q", in, got, want)
		}
	}
}
