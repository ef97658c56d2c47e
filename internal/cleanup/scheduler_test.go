package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSweep(t *testing.T) {
	temp := t.TempDir()
	uploads := t.TempDir()

	stale := filepath.Join(temp, "normalized_1.wav")
	nested := filepath.Join(temp, "whisper_output_x", "a.json")
	fresh := filepath.Join(temp, "normalized_2.wav")
	active := filepath.Join(uploads, "meeting.mp3")
	staleUpload := filepath.Join(uploads, "old.mp3")

	writeAged(t, stale, 48*time.Hour)
	writeAged(t, nested, 30*time.Hour)
	writeAged(t, fresh, time.Hour)
	writeAged(t, active, 72*time.Hour)
	writeAged(t, staleUpload, 72*time.Hour)

	s := NewScheduler(time.Hour, 24*time.Hour, temp, uploads, filepath.Join(temp, "missing"))
	s.InUse = func() map[string]bool { return map[string]bool{active: true} }

	res := s.Sweep()
	if res.Files != 3 || res.Bytes != 3*2048 {
		t.Errorf("result = %+v, want 3 files", res)
	}
	for path, want := range map[string]bool{
		stale:       false,
		nested:      false,
		staleUpload: false,
		fresh:       true,
		active:      true,
	} {
		if exists(path) != want {
			t.Errorf("%s exists = %v, want %v", filepath.Base(path), !want, want)
		}
	}
}

func TestRunStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "x.wav")
	writeAged(t, old, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(time.Hour, time.Hour, dir).Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for exists(old) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if exists(old) {
		t.Error("initial sweep did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	a, b := filepath.Join(base, "temp"), filepath.Join(base, "uploads", "x")
	if err := EnsureDirs(a, b); err != nil {
		t.Fatal(err)
	}
	if !exists(a) || !exists(b) {
		t.Error("directories not created")
	}
}
