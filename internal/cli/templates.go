package cli

import (
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/output"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
)

func NewTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List meeting templates for --template",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			formatter := output.NewFormatter(cmd.OutOrStdout())
			formatter.TemplateListHeader()
			for _, t := range templates.All() {
				formatter.TemplateListItem(t)
			}
		},
	}
}
