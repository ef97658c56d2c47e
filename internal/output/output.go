package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(path string) {
	fmt.Fprintf(f.w, "🎙️  Recording to %s\n", path)
	fmt.Fprintf(f.w, "   Press Ctrl+C to stop\n")
}

func (f *Formatter) RecordingStopped(duration time.Duration) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s)\n", formatDuration(duration))
}

// Event prints one pipeline event as a status line. Events without a
// user-facing meaning print nothing.
func (f *Formatter) Event(e events.Event) {
	switch e.Type {
	case events.TranscriptionStarted:
		fmt.Fprintf(f.w, "📝 Transcribing audio...\n")
	case events.DiarizationStarted:
		fmt.Fprintf(f.w, "👥 Identifying speakers...\n")
	case events.AlignmentCompleted:
		fmt.Fprintf(f.w, "🔗 Transcript aligned with speakers\n")
		if t, _ := e.Data["meeting_type"].(string); t != "" && t != string(templates.General) {
			fmt.Fprintf(f.w, "🏷️  Meeting type: %s\n", templates.Get(templates.MeetingType(t)).Name)
		}
	case events.CollaboratorRetry:
		fmt.Fprintf(f.w, "🔁 %v failed (attempt %v), retrying...\n", e.Data["operation"], e.Data["attempt"])
	case events.QAStarted:
		fmt.Fprintf(f.w, "❓ %v clarification question(s)\n", e.Data["questions"])
	case events.SummaryStarted:
		fmt.Fprintf(f.w, "🤖 Generating summary...\n")
	case events.SummaryCompleted:
		fmt.Fprintf(f.w, "✅ Summary ready\n")
	case events.RunFailed:
		fmt.Fprintf(f.w, "❌ Run failed during %v: %v\n", e.Data["stage"], e.Data["message"])
	case events.RunCancelled:
		fmt.Fprintf(f.w, "🛑 Run cancelled\n")
	case events.StateChanged:
		// covered by the specific events above
	}
}

// EventLine prints every event in a compact form for `meeting watch`.
func (f *Formatter) EventLine(e events.Event) {
	fmt.Fprintf(f.w, "%s  %-8.8s  %-24s", e.Time.Format("15:04:05"), e.RunID, e.Type)
	if e.State != "" {
		fmt.Fprintf(f.w, " [%s]", e.State)
	}
	if len(e.Data) > 0 {
		parts := make([]string, 0, len(e.Data))
		for k, v := range e.Data {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(parts)
		fmt.Fprintf(f.w, " %s", strings.Join(parts, " "))
	}
	fmt.Fprintln(f.w)
}

func (f *Formatter) Question(n, total int, q qa.Question) {
	fmt.Fprintf(f.w, "\n[%d/%d] %s\n", n, total, q.Prompt)
	if q.Context != "" {
		fmt.Fprintf(f.w, "      \"%s\"\n", q.Context)
	}
	if q.Sample != nil {
		fmt.Fprintf(f.w, "      (speaker sample at %s)\n", q.Sample)
	}
	fmt.Fprintf(f.w, "> ")
}

func (f *Formatter) QAHelp() {
	fmt.Fprintf(f.w, "\nAnswer each question, press Enter to skip it, or type 'skip all' to finish.\n")
}

func (f *Formatter) MeetingComplete(m *types.Meeting) {
	fmt.Fprintf(f.w, "\n📋 %s\n\n", m.Name)
	if m.MeetingType != "" && m.MeetingType != string(templates.General) {
		fmt.Fprintf(f.w, "Type: %s\n\n", templates.Get(templates.MeetingType(m.MeetingType)).Name)
	}
	if m.Summary.Text != "" {
		fmt.Fprintf(f.w, "%s\n", m.Summary.Text)
	}
	if len(m.Summary.ActionItems) > 0 {
		fmt.Fprintf(f.w, "\nAction items:\n")
		for _, item := range m.Summary.ActionItems {
			owner := item.Assignee
			if owner == "" {
				owner = "unassigned"
			}
			fmt.Fprintf(f.w, "  - [%s] %s", owner, item.Description)
			if item.DueDate != "" {
				fmt.Fprintf(f.w, " (due %s)", item.DueDate)
			}
			fmt.Fprintln(f.w)
		}
	}
	if m.LocalPath != "" {
		fmt.Fprintf(f.w, "\n📁 Meeting saved: %s\n", m.LocalPath)
	}
	if m.GDriveURL != "" {
		fmt.Fprintf(f.w, "☁️  Google Drive: %s\n", m.GDriveURL)
	}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) MeetingListHeader() {
	fmt.Fprintf(f.w, "📁 Meetings:\n\n")
}

func (f *Formatter) MeetingListItem(r storage.MeetingRecord) {
	fmt.Fprintf(f.w, "  %s  %-30s %6s  %d speaker(s), %d action item(s)  %s\n",
		r.CreatedAt.Local().Format("2006-01-02 15:04"),
		r.Name,
		formatDuration(time.Duration(r.Duration*float64(time.Second))),
		len(r.Speakers), r.ActionItems, r.ID)
}

func (f *Formatter) TemplateListHeader() {
	fmt.Fprintf(f.w, "📝 Meeting templates (use auto to detect):\n\n")
}

func (f *Formatter) TemplateListItem(t templates.Template) {
	fmt.Fprintf(f.w, "  %-14s %-22s %s\n", t.Type, t.Name, t.Description)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
