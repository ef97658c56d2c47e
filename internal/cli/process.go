package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/transcription"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

type runFlags struct {
	name     string
	mode     string
	template string
	noQA     bool
}

func (rf *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rf.name, "name", "n", "", "Meeting name (used in file names)")
	cmd.Flags().StringVarP(&rf.mode, "mode", "m", "", "Clarification mode: quick or detailed")
	cmd.Flags().StringVarP(&rf.template, "template", "t", "", "Meeting template, or auto to detect it (see 'meeting templates')")
	cmd.Flags().BoolVar(&rf.noQA, "no-qa", false, "Skip all clarification questions")
}

// parse validates the mode and template flags
func (rf *runFlags) parse() (qa.Mode, templates.MeetingType, error) {
	mode, err := qa.ParseMode(rf.mode)
	if err != nil {
		return "", "", err
	}
	tmpl, err := templates.Parse(rf.template)
	if err != nil {
		return "", "", err
	}
	return mode, tmpl, nil
}

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Transcribe and summarize an existing recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			path := args[0]

			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("audio file: %w", err)
			}
			if !transcription.ValidateAudioFormat(path) {
				return fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
			}
			mode, tmpl, err := flags.parse()
			if err != nil {
				return err
			}
			if flags.name == "" {
				flags.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			ctx := cmd.Context()
			a, err := deps.App(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			if secs, err := transcription.AudioDuration(ctx, path); err == nil {
				limit := time.Duration(a.Config.Limits.MaxDurationMinutes) * time.Minute
				if limit > 0 && time.Duration(secs*float64(time.Second)) > limit {
					return fmt.Errorf("audio is %s long, limit is %s", formatSeconds(secs), limit)
				}
			}

			sub := a.Controller.Subscribe(formatter.Event, progressEvents...)
			defer sub.Unsubscribe()

			runID, err := a.Controller.StartRun(ctx, pipeline.RunConfig{
				Name:      flags.name,
				AudioPath: path,
				Source:    types.SourceFile,
				Mode:      mode,
				Template:  tmpl,
			})
			if err != nil {
				return err
			}
			formatter.Info(fmt.Sprintf("Processing %s (run %s)", path, runID))

			meeting, err := followRun(ctx, a.Controller, runID, os.Stdin, formatter, !flags.noQA)
			if err != nil {
				return err
			}
			formatter.MeetingComplete(meeting)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// progress events the terminal shows while a run is processed
var progressEvents = []events.EventType{
	events.TranscriptionStarted,
	events.DiarizationStarted,
	events.AlignmentCompleted,
	events.CollaboratorRetry,
	events.QAStarted,
	events.SummaryStarted,
	events.SummaryCompleted,
	events.RunFailed,
	events.RunCancelled,
}

func formatSeconds(secs float64) string {
	return (time.Duration(secs) * time.Second).String()
}
