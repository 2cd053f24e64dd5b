package deployment

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skiff-cd/skiff/cmd/output"
	"github.com/skiff-cd/skiff/cmd/utils"
	"github.com/skiff-cd/skiff/domain"
	"github.com/skiff-cd/skiff/internal/app"
)

func NewCmdDeploymentRemove() *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "remove <use-case-id>",
		Short: "Remove a use case deployment",
		Long: `Tear down a use case deployment's infrastructure stack.

By default the metadata record is only marked for deletion and expires after
the retention window. With --permanent the record, configuration, and secret
are removed immediately and irreversibly.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			useCaseID, err := uuid.Parse(args[0])
			if err != nil {
				utils.HandleInvalidUUID("removing deployment", args[0])
				return
			}

			service := app.GetUseCaseService()
			var status domain.OperationStatus
			if permanent {
				status, err = service.PermanentlyDelete(context.Background(), useCaseID)
			} else {
				status, err = service.Delete(context.Background(), useCaseID)
			}
			if err != nil {
				utils.HandleCommandError("removing deployment", err, "use_case_id", useCaseID)
				return
			}

			if status == domain.StatusSuccess {
				cmd.Print(output.PrintMessage(output.Success, "Deployment %s removed.", useCaseID))
			} else {
				cmd.Print(output.PrintMessage(output.Error, "Deployment %s removal failed.", useCaseID))
			}
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "Permanently delete the record, configuration, and secret")
	return cmd
}
