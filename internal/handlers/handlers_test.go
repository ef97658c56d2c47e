package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

type fakePipeline struct {
	bus      *events.Bus
	started  []pipeline.RunConfig
	startErr error
	runs     map[string]pipeline.Snapshot
	answers  map[string]string
	opErr    error
	snippet  []byte
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		bus:     events.NewBus(),
		runs:    map[string]pipeline.Snapshot{},
		answers: map[string]string{},
	}
}

func (f *fakePipeline) StartRun(ctx context.Context, cfg pipeline.RunConfig) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, cfg)
	id := fmt.Sprintf("run-%d", len(f.started))
	f.runs[id] = pipeline.Snapshot{ID: id, Name: cfg.Name, Source: cfg.Source, State: pipeline.AwaitingProcessing}
	return id, nil
}

func (f *fakePipeline) StopRecording(ctx context.Context, runID string) error { return f.op(runID) }

func (f *fakePipeline) State(runID string) (pipeline.Snapshot, error) {
	s, ok := f.runs[runID]
	if !ok {
		return pipeline.Snapshot{}, pipeline.ErrRunNotFound
	}
	return s, nil
}

func (f *fakePipeline) Runs() []pipeline.Snapshot {
	out := []pipeline.Snapshot{}
	for _, s := range f.runs {
		out = append(out, s)
	}
	return out
}

func (f *fakePipeline) SubmitAnswer(runID, questionID, text string) error {
	if err := f.op(runID); err != nil {
		return err
	}
	f.answers[questionID] = text
	return nil
}

func (f *fakePipeline) SkipQuestion(runID, questionID string) error { return f.op(runID) }
func (f *fakePipeline) SkipAllQuestions(runID string) error { return f.op(runID) }
func (f *fakePipeline) CompleteQA(runID string) error { return f.op(runID) }
func (f *fakePipeline) Cancel(runID string) error { return f.op(runID) }
func (f *fakePipeline) RenameSpeaker(runID, from, to string) error { return f.op(runID) }

func (f *fakePipeline) Snippet(ctx context.Context, runID, questionID string) ([]byte, error) {
	if err := f.op(runID); err != nil {
		return nil, err
	}
	if f.snippet == nil {
		return nil, pipeline.ErrNoSnippet
	}
	return f.snippet, nil
}

func (f *fakePipeline) Subscribe(handler events.Handler, filter ...events.EventType) *events.Subscription {
	return f.bus.Subscribe(handler, filter...)
}

func (f *fakePipeline) op(runID string) error {
	if _, ok := f.runs[runID]; !ok {
		return pipeline.ErrRunNotFound
	}
	return f.opErr
}

func newTestApp(p Pipeline) *fiber.App {
	app := fiber.New()
	NewRunsHandler(p).Register(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	json.Unmarshal(data, &out)
	return resp, out
}

func TestStartRecording(t *testing.T) {
	p := newFakePipeline()
	app := newTestApp(p)

	resp, body := doJSON(t, app, "POST", "/runs", `{"name":"standup","mode":"detailed"}`)
	if resp.StatusCode != fiber.StatusCreated || body["run_id"] != "run-1" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if got := p.started[0]; got.Name != "standup" || got.Mode != qa.Detailed || got.Source != types.SourceRecording || got.AudioPath != "" {
		t.Errorf("run config = %+v", got)
	}

	resp, body = doJSON(t, app, "POST", "/runs", `{"mode":"verbose"}`)
	if resp.StatusCode != fiber.StatusBadRequest || body["code"] != "ERR_INVALID_MODE" {
		t.Errorf("bad mode: status %d body %v", resp.StatusCode, body)
	}

	p.startErr = pipeline.ErrRecordingActive
	resp, body = doJSON(t, app, "POST", "/runs", "")
	if resp.StatusCode != fiber.StatusConflict || body["code"] != "ERR_RECORDING_ACTIVE" {
		t.Errorf("second recording: status %d body %v", resp.StatusCode, body)
	}
}

func TestRunRoutes(t *testing.T) {
	p := newFakePipeline()
	p.runs["r1"] = pipeline.Snapshot{ID: "r1", State: pipeline.AwaitingQA}
	app := newTestApp(p)

	resp, body := doJSON(t, app, "GET", "/runs/r1", "")
	if resp.StatusCode != 200 || body["id"] != "r1" {
		t.Errorf("get: status %d body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, "GET", "/runs/missing", "")
	if resp.StatusCode != 404 || body["code"] != "ERR_RUN_NOT_FOUND" {
		t.Errorf("missing: status %d body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, app, "POST", "/runs/r1/questions/q1/answer", `{"answer":"Alice"}`)
	if resp.StatusCode != 200 || p.answers["q1"] != "Alice" {
		t.Errorf("answer: status %d answers %v", resp.StatusCode, p.answers)
	}

	resp, body = doJSON(t, app, "POST", "/runs/r1/questions/q1/answer", `{"answer":"  "}`)
	if resp.StatusCode != 400 || body["code"] != "ERR_NO_ANSWER" {
		t.Errorf("blank answer: status %d body %v", resp.StatusCode, body)
	}

	for _, path := range []string{
		"/runs/r1/questions/q2/skip",
		"/runs/r1/questions/skip-all",
		"/runs/r1/qa/complete",
		"/runs/r1/cancel",
		"/runs/r1/stop",
	} {
		if resp, _ := doJSON(t, app, "POST", path, ""); resp.StatusCode != 200 {
			t.Errorf("POST %s = %d", path, resp.StatusCode)
		}
	}

	resp, body = doJSON(t, app, "POST", "/runs/r1/speakers/rename", `{"from":"SPEAKER_00"}`)
	if resp.StatusCode != 400 {
		t.Errorf("rename without target: status %d body %v", resp.StatusCode, body)
	}

	p.opErr = fmt.Errorf("%w: run is Completed", qa.ErrInvalidState)
	resp, body = doJSON(t, app, "POST", "/runs/r1/questions/q1/skip", "")
	if resp.StatusCode != fiber.StatusConflict || body["code"] != "ERR_INVALID_STATE" {
		t.Errorf("invalid state: status %d body %v", resp.StatusCode, body)
	}
}

func TestSnippetRoute(t *testing.T) {
	p := newFakePipeline()
	p.runs["r1"] = pipeline.Snapshot{ID: "r1"}
	app := newTestApp(p)

	resp, body := doJSON(t, app, "GET", "/runs/r1/questions/q1/snippet", "")
	if resp.StatusCode != 404 || body["code"] != "ERR_NO_SNIPPET" {
		t.Errorf("no sample: status %d body %v", resp.StatusCode, body)
	}

	p.snippet = []byte("RIFF....WAVE")
	req := httptest.NewRequest("GET", "/runs/r1/questions/q1/snippet", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	if resp.Header.Get("Content-Type") != "audio/wav" || string(data) != "RIFF....WAVE" {
		t.Errorf("snippet: %s %q", resp.Header.Get("Content-Type"), data)
	}
}

func multipartUpload(t *testing.T, filename, name string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", name)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake audio bytes"))
	w.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	p := newFakePipeline()
	dir := t.TempDir()
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(p, dir, Limits{MaxSizeMB: 1}).Handle)

	resp, err := app.Test(multipartUpload(t, "weekly.mp3", "Weekly sync"), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := p.started[0]
	if got.Name != "Weekly sync" || got.Source != types.SourceUpload || filepath.Dir(got.AudioPath) != dir {
		t.Errorf("run config = %+v", got)
	}
	if data, err := os.ReadFile(got.AudioPath); err != nil || string(data) != "fake audio bytes" {
		t.Errorf("saved file = %q, %v", data, err)
	}

	resp, _ = app.Test(multipartUpload(t, "notes.txt", "x"), -1)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("unsupported format status = %d", resp.StatusCode)
	}
}

func TestGDriveImport(t *testing.T) {
	p := newFakePipeline()
	dir := t.TempDir()
	var fetched string
	download := func(ctx context.Context, fileID string, w io.Writer) (int64, error) {
		fetched = fileID
		if fileID == "privateFileId_aaaaaaaaaaaaaaaa" {
			return 0, types.Errorf(types.IOError, "gdrive download", "status 403")
		}
		n, err := io.WriteString(w, "drive audio")
		return int64(n), err
	}
	app := fiber.New()
	app.Post("/gdrive", NewGDriveHandler(p, dir, download, Limits{}).Handle)

	resp, body := doJSON(t, app, "POST", "/gdrive", `{"url":"https://drive.google.com/file/d/abc123_XYZ/view","name":"Retro"}`)
	if resp.StatusCode != fiber.StatusAccepted || body["run_id"] != "run-1" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if fetched != "abc123_XYZ" || p.started[0].Source != types.SourceGDrive {
		t.Errorf("fetched %q config %+v", fetched, p.started[0])
	}

	resp, body = doJSON(t, app, "POST", "/gdrive", `{"url":"https://example.com/nothing"}`)
	if resp.StatusCode != 400 || body["code"] != "ERR_INVALID_URL" {
		t.Errorf("bad url: status %d body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, "POST", "/gdrive", `{"url":"privateFileId_aaaaaaaaaaaaaaaa"}`)
	if resp.StatusCode != 400 || body["code"] != "ERR_FILE_NOT_ACCESSIBLE" {
		t.Errorf("private file: status %d body %v", resp.StatusCode, body)
	}
	if len(p.started) != 1 {
		t.Errorf("runs started = %d, want 1", len(p.started))
	}
}

func TestMeetingsRoutes(t *testing.T) {
	db, err := storage.NewMetadataDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	notes := filepath.Join(t.TempDir(), "notes.md")
	os.WriteFile(notes, []byte("# Planning\n"), 0644)
	now := time.Now()
	m := &types.Meeting{
		ID:        "m1",
		Name:      "Planning",
		Source:    types.SourceUpload,
		Summary:   types.Summary{Text: "Quarterly roadmap review"},
		LocalPath: notes,
		CreatedAt: now, CompletedAt: now,
	}
	if err := db.SaveMeeting(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	NewMeetingsHandler(db).Register(app)

	req := httptest.NewRequest("GET", "/meetings?q=roadmap", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var list []storage.MeetingRecord
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != "m1" {
		t.Errorf("search = %+v", list)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/meetings/m1/notes", nil), -1)
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(data) != "# Planning\n" {
		t.Errorf("notes: %d %q", resp.StatusCode, data)
	}

	resp, body := doJSON(t, app, "GET", "/meetings/nope", "")
	if resp.StatusCode != 404 || body["code"] != "ERR_MEETING_NOT_FOUND" {
		t.Errorf("missing: status %d body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, app, "DELETE", "/meetings/m1", "")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{pipeline.ErrRunNotFound, 404, "ERR_RUN_NOT_FOUND"},
		{fmt.Errorf("wrap: %w", qa.ErrNotFound), 404, "ERR_QUESTION_NOT_FOUND"},
		{pipeline.ErrQANotComplete, 409, "ERR_INVALID_STATE"},
		{pipeline.ErrNoAudioSource, 503, "ERR_NO_AUDIO_SOURCE"},
		{fmt.Errorf("start run: %w", templates.ErrUnknown), 400, "ERR_INVALID_TEMPLATE"},
		{types.Errorf(types.DeviceUnavailable, "start capture", "no mic"), 503, "ERR_DEVICE_UNAVAILABLE"},
		{types.Errorf(types.IOError, "stop capture", "disk full"), 500, "ERR_IO"},
		{errors.New("boom"), 500, "ERR_INTERNAL"},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestUploadDurationLimit(t *testing.T) {
	p := newFakePipeline()
	dir := t.TempDir()
	limits := Limits{
		MaxSizeMB:   1,
		MaxDuration: time.Hour,
		Measure: func(ctx context.Context, path string) (float64, error) {
			return 2 * 3600, nil
		},
	}
	app := fiber.New()
	app.Post("/upload", NewUploadHandler(p, dir, limits).Handle)

	resp, err := app.Test(multipartUpload(t, "long.wav", "All hands"), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest || len(p.started) != 0 {
		t.Errorf("status %d, runs %d", resp.StatusCode, len(p.started))
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("rejected upload left %d file(s)", len(entries))
	}
}

func TestStartWithTemplate(t *testing.T) {
	p := newFakePipeline()
	app := newTestApp(p)

	resp, body := doJSON(t, app, "POST", "/runs", `{"name":"sync","template":"Standup"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if got := p.started[0].Template; got != templates.Standup {
		t.Errorf("template = %q", got)
	}

	resp, body = doJSON(t, app, "POST", "/runs", `{"template":"party"}`)
	if resp.StatusCode != fiber.StatusBadRequest || body["code"] != "ERR_INVALID_TEMPLATE" {
		t.Errorf("bad template: status %d body %v", resp.StatusCode, body)
	}
	if len(p.started) != 1 {
		t.Errorf("bad template started a run")
	}
}

func TestListTemplates(t *testing.T) {
	app := newTestApp(newFakePipeline())

	resp, body := doJSON(t, app, "GET", "/templates", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	list, _ := body["templates"].([]any)
	if len(list) != len(templates.All()) {
		t.Fatalf("templates = %v", body)
	}
	first, _ := list[0].(map[string]any)
	if first["type"] != "general" || first["name"] != "General Meeting" {
		t.Errorf("first template = %v", first)
	}
	if _, ok := first["keywords"]; ok {
		t.Error("keywords should not be exposed")
	}
}
