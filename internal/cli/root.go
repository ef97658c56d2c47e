package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/app"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/config"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/version"
)

type Dependencies struct {
	ConfigPath string
	Config     *config.Config
	Verbose    bool

	app *app.App
}

// App builds the pipeline on first use; commands that only talk to a
// server never load Whisper or open the history database.
func (d *Dependencies) App(ctx context.Context) (*app.App, error) {
	if d.app != nil {
		return d.app, nil
	}
	if err := d.loadConfig(); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, d.Config)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	a.Start(ctx, false)
	d.app = a
	return a, nil
}

// Close releases the app if one was built
func (d *Dependencies) Close() error {
	if d.app == nil {
		return nil
	}
	return d.app.Close()
}

func (d *Dependencies) loadConfig() error {
	if d.Config != nil {
		return nil
	}
	cfg, err := config.Load(d.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	d.Config = cfg
	return nil
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meeting",
		Short: "Record, transcribe, clarify and summarize meetings",
		Long: "A local meeting assistant: records or imports audio, transcribes it with Whisper, " +
			"identifies speakers with pyannote, asks you to clarify what it could not work out, " +
			"and writes meeting notes with a local Ollama model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !deps.Verbose {
				log.SetOutput(io.Discard)
			}
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().BoolVarP(&deps.Verbose, "verbose", "v", false, "Show pipeline logs")
	rootCmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", deps.ConfigPath, "Config file (.yaml or .toml)")

	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewHistoryCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewTemplatesCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
