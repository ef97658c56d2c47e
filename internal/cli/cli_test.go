package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/version"
)

type fakeDriver struct {
	snaps   []pipeline.Snapshot
	errs    []error
	calls   []string
	skipErr error
}

func (d *fakeDriver) Await(ctx context.Context, runID string, states ...pipeline.State) (pipeline.Snapshot, error) {
	snap, err := d.snaps[0], d.errs[0]
	d.snaps, d.errs = d.snaps[1:], d.errs[1:]
	return snap, err
}

func (d *fakeDriver) SubmitAnswer(runID, questionID, text string) error {
	d.calls = append(d.calls, fmt.Sprintf("answer %s=%s", questionID, text))
	return nil
}

func (d *fakeDriver) SkipQuestion(runID, questionID string) error {
	d.calls = append(d.calls, "skip "+questionID)
	return d.skipErr
}

func (d *fakeDriver) SkipAllQuestions(runID string) error {
	d.calls = append(d.calls, "skip all")
	return nil
}

func qaSnapshot() pipeline.Snapshot {
	return pipeline.Snapshot{
		ID:    "r1",
		State: pipeline.AwaitingQA,
		Questions: []qa.Question{
			{ID: "q1", Prompt: "Who is SPEAKER_00?", Status: qa.StatusOpen},
			{ID: "q2", Prompt: "When is 'next week'?", Status: qa.StatusOpen},
			{ID: "q3", Prompt: "Who owns the report?", Status: qa.StatusOpen},
		},
	}
}

func completed() pipeline.Snapshot {
	return pipeline.Snapshot{ID: "r1", State: pipeline.Completed, Meeting: &types.Meeting{ID: "r1", Name: "Sync"}}
}

func TestFollowRunAsksQuestions(t *testing.T) {
	d := &fakeDriver{
		snaps: []pipeline.Snapshot{qaSnapshot(), completed()},
		errs:  []error{nil, nil},
	}
	var out bytes.Buffer
	in := strings.NewReader("Alice\n\nskip all\n")

	m, err := followRun(context.Background(), d, "r1", in, output.NewFormatter(&out), true)
	if err != nil {
		t.Fatalf("followRun: %v", err)
	}
	if m.Name != "Sync" {
		t.Errorf("meeting = %+v", m)
	}
	want := []string{"answer q1=Alice", "skip q2", "skip all"}
	if fmt.Sprint(d.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	if !strings.Contains(out.String(), "[1/3] Who is SPEAKER_00?") {
		t.Errorf("output missing question:\n%s", out.String())
	}
}

func TestFollowRunNonInteractive(t *testing.T) {
	d := &fakeDriver{
		snaps: []pipeline.Snapshot{qaSnapshot(), completed()},
		errs:  []error{nil, nil},
	}
	if _, err := followRun(context.Background(), d, "r1", strings.NewReader(""), output.NewFormatter(&bytes.Buffer{}), false); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(d.calls) != "[skip all]" {
		t.Errorf("calls = %v", d.calls)
	}
}

func TestFollowRunSessionClosedByTimeout(t *testing.T) {
	d := &fakeDriver{
		snaps:   []pipeline.Snapshot{qaSnapshot(), completed()},
		errs:    []error{nil, nil},
		skipErr: fmt.Errorf("%w: session is Completed", qa.ErrInvalidState),
	}
	var out bytes.Buffer
	_, err := followRun(context.Background(), d, "r1", strings.NewReader("\n"), output.NewFormatter(&out), true)
	if err != nil {
		t.Fatalf("followRun: %v", err)
	}
	if !strings.Contains(out.String(), "already finished") {
		t.Errorf("output = %s", out.String())
	}
}

func TestFollowRunFailure(t *testing.T) {
	failed := pipeline.Snapshot{
		ID:    "r1",
		State: pipeline.Failed,
		Error: &pipeline.ErrorInfo{Kind: types.ServiceUnavailable, Message: "ollama not accessible", Stage: pipeline.AwaitingQA},
	}
	d := &fakeDriver{
		snaps: []pipeline.Snapshot{failed},
		errs:  []error{fmt.Errorf("%w: Failed", pipeline.ErrRunEnded)},
	}
	_, err := followRun(context.Background(), d, "r1", strings.NewReader(""), output.NewFormatter(&bytes.Buffer{}), true)
	if err == nil || !strings.Contains(err.Error(), "ollama not accessible") || !strings.Contains(err.Error(), "ServiceUnavailable") {
		t.Errorf("err = %v", err)
	}
}

func TestEventsURL(t *testing.T) {
	if got := eventsURL("localhost:8080", ""); got != "ws://localhost:8080/ws/events" {
		t.Errorf("got %s", got)
	}
	if got := eventsURL("host:1", "abc"); got != "ws://host:1/ws/events?run_id=abc" {
		t.Errorf("got %s", got)
	}
}

func TestWatchEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(events.Event{Type: events.QAStarted, RunID: "r1", Seq: 1})
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(events.Event{Type: events.RunCompleted, RunID: "r1", Seq: 2})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	var got []events.Event
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	if err := watchEvents(context.Background(), u, func(e events.Event) { got = append(got, e) }); err != nil {
		t.Fatalf("watchEvents: %v", err)
	}
	if len(got) != 2 || got[0].Type != events.QAStarted || got[1].Seq != 2 {
		t.Errorf("events = %+v", got)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd(&Dependencies{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version.Full() {
		t.Errorf("output = %q", out.String())
	}
}

func TestTemplatesCommand(t *testing.T) {
	cmd := NewRootCmd(&Dependencies{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"templates"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"general", "standup", "Daily Standup", "retrospective"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunFlagsRejectUnknownTemplate(t *testing.T) {
	rf := runFlags{template: "party"}
	if _, _, err := rf.parse(); err == nil {
		t.Fatal("unknown template accepted")
	}
	rf = runFlags{mode: "detailed", template: "auto"}
	mode, tmpl, err := rf.parse()
	if err != nil || mode != qa.Detailed || tmpl != "auto" {
		t.Errorf("parse = %s %s %v", mode, tmpl, err)
	}
}
