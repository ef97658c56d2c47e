package align

import (
	"reflect"
	"testing"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

func span(s, e float64) types.TimeSpan { return types.TimeSpan{Start: s, End: e} }

func spk(s, e float64, label string) types.SpeakerSegment {
	return types.SpeakerSegment{Span: span(s, e), Speaker: label}
}

func raw(s, e float64, text string) types.RawTranscriptSegment {
	return types.RawTranscriptSegment{Span: span(s, e), Text: text}
}

func labels(segs []types.AttributedSegment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Speaker
	}
	return out
}

func TestAlign(t *testing.T) {
	tests := []struct {
		name     string
		speakers []types.SpeakerSegment
		raw      []types.RawTranscriptSegment
		want     []string
	}{
		{
			name:     "tie goes to earlier start",
			speakers: []types.SpeakerSegment{spk(0, 5, "A"), spk(5, 10, "B")},
			raw:      []types.RawTranscriptSegment{raw(3, 7, "hello")},
			want:     []string{"A"},
		},
		{
			name:     "max overlap wins",
			speakers: []types.SpeakerSegment{spk(0, 4, "A"), spk(4, 10, "B")},
			raw:      []types.RawTranscriptSegment{raw(3, 7, "x")},
			want:     []string{"B"},
		},
		{
			name:     "unsorted diarization is sorted first",
			speakers: []types.SpeakerSegment{spk(5, 10, "B"), spk(0, 5, "A")},
			raw:      []types.RawTranscriptSegment{raw(3, 7, "x"), raw(8, 9, "y")},
			want:     []string{"A", "B"},
		},
		{
			name:     "gap falls back to preceding speaker",
			speakers: []types.SpeakerSegment{spk(0, 2, "A"), spk(1, 3, "B"), spk(10, 12, "C")},
			raw:      []types.RawTranscriptSegment{raw(5, 6, "gap")},
			want:     []string{"B"},
		},
		{
			name:     "preceding tie on end goes to earlier start",
			speakers: []types.SpeakerSegment{spk(0, 3, "A"), spk(1, 3, "B")},
			raw:      []types.RawTranscriptSegment{raw(4, 5, "gap")},
			want:     []string{"A"},
		},
		{
			name:     "before all diarization is unknown",
			speakers: []types.SpeakerSegment{spk(5, 10, "A")},
			raw:      []types.RawTranscriptSegment{raw(0, 2, "early"), raw(6, 7, "late")},
			want:     []string{types.UnknownSpeaker, "A"},
		},
		{
			name:     "zero length span uses containing turn",
			speakers: []types.SpeakerSegment{spk(0, 5, "A"), spk(5, 10, "B")},
			raw:      []types.RawTranscriptSegment{raw(6, 6, "blip")},
			want:     []string{"B"},
		},
		{
			name: "no speakers",
			raw:  []types.RawTranscriptSegment{raw(0, 1, "a"), raw(1, 2, "b")},
			want: []string{types.UnknownSpeaker, types.UnknownSpeaker},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(Align(tt.speakers, tt.raw))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Align() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignEmptyRaw(t *testing.T) {
	got := Align([]types.SpeakerSegment{spk(0, 1, "A")}, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("Align(_, nil) = %#v, want empty slice", got)
	}
}

func TestAlignCoverageAndDeterminism(t *testing.T) {
	speakers := []types.SpeakerSegment{
		spk(12, 20, "SPEAKER_01"), spk(0, 8, "SPEAKER_00"), spk(7, 13, "SPEAKER_02"), spk(25, 30, "SPEAKER_00"),
	}
	rawSegs := []types.RawTranscriptSegment{
		raw(0, 3, "one"), raw(3, 7.5, "two"), raw(7.5, 12.5, "three"),
		raw(12.5, 21, "four"), raw(21, 24, "five"), raw(24, 31, "six"),
	}
	original := make([]types.SpeakerSegment, len(speakers))
	copy(original, speakers)

	first := Align(speakers, rawSegs)
	second := Align(speakers, rawSegs)

	if len(first) != len(rawSegs) {
		t.Fatalf("len = %d, want %d", len(first), len(rawSegs))
	}
	for i := range rawSegs {
		if first[i].Span != rawSegs[i].Span || first[i].Text != rawSegs[i].Text {
			t.Fatalf("segment %d changed: %+v vs %+v", i, first[i], rawSegs[i])
		}
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Align is not deterministic")
	}
	if !reflect.DeepEqual(speakers, original) {
		t.Fatal("Align mutated its speaker input")
	}
}

func TestBestSample(t *testing.T) {
	tr := types.NewTranscript([]types.AttributedSegment{
		{Span: span(0, 1), Speaker: "A"},
		{Span: span(1, 10), Speaker: "A"},
		{Span: span(10, 40), Speaker: "B"},
		{Span: span(40, 41), Speaker: "C"},
		{Span: span(41, 42.5), Speaker: "C"},
	}, "en")

	tests := []struct {
		speaker string
		want    types.TimeSpan
		ok      bool
	}{
		{"A", span(1, 6), true},
		{"B", span(10, 15), true},
		{"C", span(41, 42.5), true},
		{"D", types.TimeSpan{}, false},
	}
	for _, tt := range tests {
		got, ok := BestSample(tr, tt.speaker, 2, 15, 5)
		if ok != tt.ok || got != tt.want {
			t.Errorf("BestSample(%s) = %v,%v want %v,%v", tt.speaker, got, ok, tt.want, tt.ok)
		}
	}
}
