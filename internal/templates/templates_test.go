package templates

import (
	"errors"
	"testing"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

func transcriptOf(lines ...string) types.Transcript {
	segs := make([]types.AttributedSegment, len(lines))
	for i, l := range lines {
		segs[i] = types.AttributedSegment{
			Span:    types.TimeSpan{Start: float64(i), End: float64(i + 1)},
			Text:    l,
			Speaker: "SPEAKER_00",
		}
	}
	return types.NewTranscript(segs, "en")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  MeetingType
	}{
		{"standup", []string{"Yesterday I finished the parser.", "Today I start on the cache, no blocker."}, Standup},
		{"planning", []string{"For this sprint we have twelve story points.", "Capacity is lower because of holidays."}, Planning},
		{"single keyword stays general", []string{"The client liked the demo."}, General},
		{"nothing", []string{"Hello everyone."}, General},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(transcriptOf(tt.lines...)); got != tt.want {
				t.Errorf("Detect = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectTieGoesToFirstListed(t *testing.T) {
	// two standup keywords and two client keywords
	tr := transcriptOf("Daily sync: the customer signed the contract yesterday.")
	if got := Detect(tr); got != Standup {
		t.Errorf("Detect = %s, want %s", got, Standup)
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]MeetingType{
		"":           "",
		"auto":       Auto,
		" Standup ":  Standup,
		"ONE_ON_ONE": OneOnOne,
	} {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := Parse("party"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Parse(party) = %v, want ErrUnknown", err)
	}
}

func TestGetFallsBackToGeneral(t *testing.T) {
	if got := Get("party"); got.Type != General {
		t.Errorf("Get(party) = %s", got.Type)
	}
	if got := Get(Retrospective); got.Name != "Retrospective" {
		t.Errorf("Get(retrospective) = %+v", got)
	}
}

func TestBuiltinTemplatesComplete(t *testing.T) {
	all := All()
	if all[0].Type != General {
		t.Fatalf("first template = %s, want general", all[0].Type)
	}
	seen := map[MeetingType]bool{}
	for _, tmpl := range all {
		if seen[tmpl.Type] {
			t.Errorf("duplicate template %s", tmpl.Type)
		}
		seen[tmpl.Type] = true
		if tmpl.Name == "" || tmpl.SystemPrompt == "" || tmpl.Instructions == "" || len(tmpl.Sections) == 0 {
			t.Errorf("template %s is incomplete", tmpl.Type)
		}
		if tmpl.Type != General && len(tmpl.Keywords) < minDetectScore {
			t.Errorf("template %s cannot be detected", tmpl.Type)
		}
	}
	if len(seen) != 9 {
		t.Errorf("%d templates, want 9", len(seen))
	}
}
