package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
)

func NewHistoryCmd(deps *Dependencies) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List processed meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			ctx := cmd.Context()
			a, err := deps.App(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			var records []storage.MeetingRecord
			if search != "" {
				records, err = a.History.SearchMeetings(ctx, search, limit)
			} else {
				records, err = a.History.ListMeetings(ctx, limit)
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				formatter.Info("No meetings found")
				return nil
			}
			formatter.MeetingListHeader()
			for _, r := range records {
				formatter.MeetingListItem(r)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of meetings to list")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list meetings matching this text")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Print a meeting's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := deps.App(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			rec, err := a.History.GetMeeting(ctx, args[0])
			if err != nil {
				return err
			}
			if rec.LocalPath == "" {
				return fmt.Errorf("meeting %s has no local notes", rec.ID)
			}
			notes, err := os.ReadFile(rec.LocalPath)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(notes)
			return err
		},
	})
	return cmd
}
