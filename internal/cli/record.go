package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a meeting from the microphone (Ctrl+C to stop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			mode, tmpl, err := flags.parse()
			if err != nil {
				return err
			}
			if flags.name == "" {
				flags.name = "meeting_" + time.Now().Format("2006-01-02_1504")
			}

			ctx := cmd.Context()
			a, err := deps.App(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			sub := a.Controller.Subscribe(formatter.Event, progressEvents...)
			defer sub.Unsubscribe()

			runID, err := a.Controller.StartRun(ctx, pipeline.RunConfig{
				Name:     flags.name,
				Source:   types.SourceRecording,
				Mode:     mode,
				Template: tmpl,
			})
			if err != nil {
				return err
			}
			snap, err := a.Controller.State(runID)
			if err != nil {
				return err
			}
			formatter.RecordingStarted(snap.Audio.Path)

			waitForInterrupt(ctx)

			if err := a.Controller.StopRecording(context.WithoutCancel(ctx), runID); err != nil {
				return fmt.Errorf("stopping recording: %w", err)
			}
			formatter.RecordingStopped(time.Since(snap.CreatedAt))

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

// waitForInterrupt blocks until Ctrl+C, SIGTERM or ctx is done
func waitForInterrupt(ctx context.Context) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	fmt.Println()
}
