package cli

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			if _, err := exec.LookPath("ffmpeg"); err != nil {
				f.SetupCheck("ffmpeg", false, "not found. Install it with your package manager")
				ok = false
			} else {
				f.SetupCheck("ffmpeg", true, "installed")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			a, err := deps.App(ctx)
			if err != nil {
				f.SetupCheck("Configuration", false, err.Error())
				f.Warning("\nSome prerequisites are missing.")
				return nil
			}
			defer deps.Close()
			cfg := deps.Config

			if err := a.Transcriber.Check(ctx); err != nil {
				f.SetupCheck("Whisper", false, err.Error()+". Install with: pip install openai-whisper")
				ok = false
			} else {
				f.SetupCheck("Whisper", true, "model "+cfg.Whisper.Model)
			}

			if cfg.Diarization.HFToken != "" {
				f.SetupCheck("Hugging Face token", true, "configured")
			} else {
				f.SetupCheck("Hugging Face token", false, "not set. Set HF_TOKEN to download the pyannote pipeline")
				ok = false
			}

			if err := a.Summarizer.CheckAvailability(ctx); err != nil {
				f.SetupCheck("Ollama", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Ollama", true, cfg.Ollama.Model+" at "+cfg.Ollama.Host)
			}

			if a.Drive != nil {
				f.SetupCheck("Google Drive", true, "folder "+cfg.GoogleDrive.FolderName)
			} else {
				f.SetupCheck("Google Drive", true, "disabled, saving locally only")
			}

			f.SetupCheck("History", true, cfg.History.Driver)
			f.SetupCheck("Meetings directory", true, cfg.Storage.OutputDir)

			if ok {
				f.Success("\nAll prerequisites met. Ready to record!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
