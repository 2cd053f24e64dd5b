package deployment

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skiff-cd/skiff/cmd/output"
	"github.com/skiff-cd/skiff/cmd/utils"
	"github.com/skiff-cd/skiff/internal/app"
)

func NewCmdDeploymentList() *cobra.Command {
	var pageToken string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List use case deployments",
		Long: `Display one page of use case deployments managed by Skiff.

Shows deployment information in a table format including:
- Use case ID, name, provider and type
- Current stack status
- The deployed web URL`,
		Run: func(cmd *cobra.Command, args []string) {
			listing, err := app.GetUseCaseService().List(context.Background(), pageToken)
			if err != nil {
				utils.HandleCommandError("listing deployments", err)
				return
			}

			out, err := output.PrintDeploymentList(listing)
			if err != nil {
				utils.HandleCommandError("printing deployment list table", err)
				return
			}

			cmd.Print(out)
			if listing.NextPageToken != "" {
				cmd.Print(output.PrintMessage(output.Plain, "More results available: --page-token %s", listing.NextPageToken))
			}
		},
	}

	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue listing from this page token")
	return cmd
}
