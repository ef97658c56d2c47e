package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// runDriver is what the terminal needs to see a run through to the end
type runDriver interface {
	Await(ctx context.Context, runID string, states ...pipeline.State) (pipeline.Snapshot, error)
	SubmitAnswer(runID, questionID, text string) error
	SkipQuestion(runID, questionID string) error
	SkipAllQuestions(runID string) error
}

// followRun waits for the run to finish, asking the user the clarification
// questions on the way. With interactive unset every question is skipped.
func followRun(ctx context.Context, d runDriver, runID string, in io.Reader, f *output.Formatter, interactive bool) (*types.Meeting, error) {
	snap, err := d.Await(ctx, runID, pipeline.AwaitingQA, pipeline.Summarizing, pipeline.Completed)
	if err != nil {
		return nil, runError(snap, err)
	}

	if snap.State == pipeline.AwaitingQA {
		if err := askQuestions(d, snap, in, f, interactive); err != nil {
			return nil, err
		}
	}

	snap, err = d.Await(ctx, runID, pipeline.Completed)
	if err != nil {
		return nil, runError(snap, err)
	}
	if snap.Meeting == nil {
		return nil, fmt.Errorf("run %s completed without a meeting", runID)
	}
	return snap.Meeting, nil
}

func askQuestions(d runDriver, snap pipeline.Snapshot, in io.Reader, f *output.Formatter, interactive bool) error {
	var open []qa.Question
	for _, q := range snap.Questions {
		if q.Status == qa.StatusOpen {
			open = append(open, q)
		}
	}
	if len(open) == 0 {
		return nil
	}
	if !interactive {
		return settled(d.SkipAllQuestions(snap.ID))
	}

	f.QAHelp()
	scanner := bufio.NewScanner(in)
	for i, q := range open {
		f.Question(i+1, len(open), q)
		if !scanner.Scan() {
			// stdin closed
			return settled(d.SkipAllQuestions(snap.ID))
		}

		answer := strings.TrimSpace(scanner.Text())
		var err error
		switch strings.ToLower(answer) {
		case "":
			err = d.SkipQuestion(snap.ID, q.ID)
		case "skip all", "skip-all":
			return settled(d.SkipAllQuestions(snap.ID))
		default:
			err = d.SubmitAnswer(snap.ID, q.ID, answer)
		}
		if err != nil {
			if settled(err) == nil {
				f.Warning("Clarification already finished; remaining questions were skipped")
				return nil
			}
			return err
		}
	}
	return nil
}

// settled ignores errors that only mean the session was completed already,
// for example by the idle timeout.
func settled(err error) error {
	if errors.Is(err, pipeline.ErrNoSession) || errors.Is(err, qa.ErrInvalidState) {
		return nil
	}
	return err
}

func runError(snap pipeline.Snapshot, err error) error {
	if errors.Is(err, pipeline.ErrRunEnded) {
		if snap.Error != nil {
			return fmt.Errorf("run failed during %s (%s): %s", snap.Error.Stage, snap.Error.Kind, snap.Error.Message)
		}
		return fmt.Errorf("run ended: %s", snap.State)
	}
	return err
}
