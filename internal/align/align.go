// Package align attributes transcribed text to diarized speakers.
package align

import (
	"sort"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Align returns one AttributedSegment per raw segment, in input order.
//
// Each raw segment goes to the speaker turn with the largest overlap; ties
// go to the turn that starts first. A raw segment overlapping no turn goes
// to the turn that ended most recently before it, or to UnknownSpeaker when
// it precedes all diarization output. Align does not modify its inputs.
func Align(speakers []types.SpeakerSegment, raw []types.RawTranscriptSegment) []types.AttributedSegment {
	out := make([]types.AttributedSegment, len(raw))
	if len(raw) == 0 {
		return out
	}

	sorted := make([]types.SpeakerSegment, len(speakers))
	copy(sorted, speakers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	for i, r := range raw {
		out[i] = types.AttributedSegment{
			Span:    r.Span,
			Text:    r.Text,
			Speaker: attribute(sorted, r.Span),
		}
	}
	return out
}

// attribute picks the speaker for span from turns sorted by start.
func attribute(turns []types.SpeakerSegment, span types.TimeSpan) string {
	best := -1
	bestOverlap := 0.0
	for i, turn := range turns {
		if turn.Span.Start >= span.End && span.End > span.Start {
			break
		}
		if ov := turn.Span.Overlap(span); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	if best >= 0 {
		return turns[best].Speaker
	}

	// zero-length spans have no overlap; use the turn containing the instant
	if span.End <= span.Start {
		for _, turn := range turns {
			if turn.Span.Contains(span.Start) {
				return turn.Speaker
			}
		}
	}

	return preceding(turns, span)
}

// preceding returns the speaker whose turn ended last at or before span
// starts. Ties on end time go to the earlier start.
func preceding(turns []types.SpeakerSegment, span types.TimeSpan) string {
	best := -1
	for i, turn := range turns {
		if turn.Span.End > span.Start {
			continue
		}
		if best < 0 || turn.Span.End > turns[best].Span.End {
			best = i
		}
	}
	if best < 0 {
		return types.UnknownSpeaker
	}
	return turns[best].Speaker
}

// Speakers returns the sorted set of labels used by segments
func Speakers(segments []types.AttributedSegment) []string {
	return types.NewTranscript(segments, "").Speakers
}

// BestSample picks the span of speaker's audio to play back when asking who
// they are: the first turn lasting between minLen and maxLen seconds, or
// else the longest turn, clipped to clip seconds. ok is false if the speaker
// has no segments.
func BestSample(t types.Transcript, speaker string, minLen, maxLen, clip float64) (types.TimeSpan, bool) {
	segs := t.SegmentsBy(speaker)
	if len(segs) == 0 {
		return types.TimeSpan{}, false
	}

	pick := -1
	for i, seg := range segs {
		if d := seg.Span.Duration(); d >= minLen && d <= maxLen {
			pick = i
			break
		}
	}
	if pick < 0 {
		pick = 0
		for i, seg := range segs {
			if seg.Span.Duration() > segs[pick].Span.Duration() {
				pick = i
			}
		}
	}

	span := segs[pick].Span
	if clip > 0 && span.Duration() > clip {
		span.End = span.Start + clip
	}
	return span, true
}
