package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

func sampleMeeting(id string) *types.Meeting {
	segs := []types.AttributedSegment{
		{Span: types.TimeSpan{Start: 0, End: 10}, Speaker: "SPEAKER_00", Text: "Let's review the launch plan."},
		{Span: types.TimeSpan{Start: 10, End: 20}, Speaker: "Bob", Text: "I will send the budget by Friday."},
	}
	created := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	return &types.Meeting{
		ID:         id,
		Name:       "Launch sync",
		Source:     types.SourceUpload,
		AudioPath:  "/tmp/launch.wav",
		Transcript: types.NewTranscript(segs, "en"),
		Context: types.EnhancedContext{
			SpeakerNames: map[string]string{"SPEAKER_00": "Alice"},
			Clarifications: []types.Clarification{
				{QuestionID: "q1", Kind: "SpeakerIdentity", Prompt: "Who is speaker SPEAKER_00?", Answer: "Alice"},
			},
		},
		Summary: types.Summary{
			Text:        "The team reviewed the launch plan.",
			KeyPoints:   []string{"Launch is on track"},
			ActionItems: []types.ActionItem{{Description: "Send the budget", Assignee: "Bob", DueDate: "Friday", Status: "pending"}},
			Decisions:   []string{"Ship in April"},
			Model:       "llama3.2",
		},
		CreatedAt:   created,
		CompletedAt: created.Add(5 * time.Minute),
	}
}

func TestRenderNotes(t *testing.T) {
	notes := RenderNotes(sampleMeeting("m1"))
	for _, want := range []string{
		"# Launch sync",
		"**Participants**: Alice (SPEAKER_00)",
		"## Summary\nThe team reviewed the launch plan.",
		"- Launch is on track",
		"- [ ] **Bob**: Send the budget (Due: Friday)",
		"- Ship in April",
		"[Alice]: Let's review the launch plan.",
	} {
		if !strings.Contains(notes, want) {
			t.Errorf("notes missing %q:\n%s", want, notes)
		}
	}
	if strings.Contains(notes, "[SPEAKER_00]") {
		t.Error("transcript still shows the raw speaker label")
	}
}

func TestRenderNotesForTemplate(t *testing.T) {
	m := sampleMeeting("m1")
	m.MeetingType = "standup"
	m.Summary.Sections = []types.Section{
		{Title: "Alice", Lines: []string{"- Yesterday: launch plan", "- Today: budget review"}},
	}
	notes := RenderNotes(m)
	for _, want := range []string{
		"**Type**: Daily Standup\n",
		"## Alice\n- Yesterday: launch plan\n- Today: budget review\n",
	} {
		if !strings.Contains(notes, want) {
			t.Errorf("notes missing %q:\n%s", want, notes)
		}
	}
	if strings.Index(notes, "## Alice") > strings.Index(notes, "## Key Points") {
		t.Error("template sections should precede key points")
	}

	if strings.Contains(RenderNotes(sampleMeeting("m2")), "**Type**") {
		t.Error("general meetings should not show a type")
	}
}

func TestLocalStorageSaveMeeting(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)
	ls.now = func() time.Time { return time.Date(2025, 1, 23, 14, 30, 22, 0, time.Local) }

	m := sampleMeeting("m1")
	m.Name = "weekly/sync: q1"
	if err := ls.SaveMeeting(context.Background(), m); err != nil {
		t.Fatalf("SaveMeeting: %v", err)
	}

	wantPath := filepath.Join(dir, "2025", "01", "23", "20250123_143022_weekly_sync__q1.md")
	if m.LocalPath != wantPath {
		t.Fatalf("LocalPath = %q, want %q", m.LocalPath, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("notes not written: %v", err)
	}

	raw, err := os.ReadFile(strings.TrimSuffix(wantPath, ".md") + "_meta.json")
	if err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatal(err)
	}
	if meta["meeting_id"] != "m1" || meta["local_path"] != wantPath {
		t.Errorf("metadata = %v", meta)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "meeting"},
		{"standup", "standup"},
		{"a/b\\c", "a_b_c"},
		{"plan: v2?", "plan__v2_"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetadataDB(t *testing.T) {
	ctx := context.Background()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "meetings.db"))
	if err != nil {
		t.Fatalf("NewMetadataDB: %v", err)
	}
	defer db.Close()

	var _ History = db

	first := sampleMeeting("m1")
	first.LocalPath = "/out/m1.md"
	second := sampleMeeting("m2")
	second.Name = "Hiring review"
	second.Summary.Text = "Discussed candidates."
	second.CreatedAt = first.CreatedAt.Add(time.Hour)

	for _, m := range []*types.Meeting{first, second} {
		if err := db.SaveMeeting(ctx, m); err != nil {
			t.Fatalf("SaveMeeting %s: %v", m.ID, err)
		}
	}

	rec, err := db.GetMeeting(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMeeting: %v", err)
	}
	if rec.Name != "Launch sync" || rec.LocalPath != "/out/m1.md" || rec.ActionItems != 1 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Speakers) != 2 || rec.Speakers[0] != "Bob" || rec.Speakers[1] != "Alice" {
		t.Errorf("speakers = %v, want named speakers", rec.Speakers)
	}
	if !rec.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at = %v, want %v", rec.CreatedAt, first.CreatedAt)
	}

	list, err := db.ListMeetings(ctx, 10)
	if err != nil {
		t.Fatalf("ListMeetings: %v", err)
	}
	if len(list) != 2 || list[0].ID != "m2" {
		t.Errorf("list order = %v", list)
	}

	found, err := db.SearchMeetings(ctx, "budget", 10)
	if err != nil {
		t.Fatalf("SearchMeetings: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("search by transcript found %d, want 2", len(found))
	}
	found, _ = db.SearchMeetings(ctx, "Hiring", 10)
	if len(found) != 1 || found[0].ID != "m2" {
		t.Errorf("search by name = %v", found)
	}

	// saving again updates in place
	first.GDriveURL = "https://drive.google.com/file/d/abc/view"
	if err := db.SaveMeeting(ctx, first); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	rec, _ = db.GetMeeting(ctx, "m1")
	if rec.GDriveURL == "" {
		t.Error("upsert did not update gdrive_url")
	}

	if err := db.DeleteMeeting(ctx, "m1"); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if _, err := db.GetMeeting(ctx, "m1"); !errors.Is(err, ErrMeetingNotFound) {
		t.Errorf("GetMeeting after delete = %v", err)
	}
	if err := db.DeleteMeeting(ctx, "m1"); !errors.Is(err, ErrMeetingNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestExtractFileID(t *testing.T) {
	id := "1AbCdEfGhIjKlMnOpQrStUvWxYz"
	tests := []struct {
		url  string
		want string
	}{
		{"https://drive.google.com/file/d/" + id + "/view?usp=sharing", id},
		{"https://drive.google.com/open?id=" + id, id},
		{id, id},
		{"https://example.com/audio.mp3", ""},
	}
	for _, tt := range tests {
		if got := ExtractFileID(tt.url); got != tt.want {
			t.Errorf("ExtractFileID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDownloadPublic(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("id") == "private" {
			return &http.Response{StatusCode: 403, Body: io.NopCloser(strings.NewReader(""))}, nil
		}
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader("RIFFdata"))}, nil
	})}

	var buf bytes.Buffer
	n, err := DownloadPublic(context.Background(), client, "public", &buf)
	if err != nil || n != 8 || buf.String() != "RIFFdata" {
		t.Fatalf("DownloadPublic = %d, %v (%q)", n, err, buf.String())
	}

	_, err = DownloadPublic(context.Background(), client, "private", io.Discard)
	if types.KindOf(err) != types.IOError {
		t.Errorf("private file error = %v, want IOError", err)
	}
}
