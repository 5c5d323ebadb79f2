package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"automark_backend/internals/constants"
	subService "automark_backend/internals/features/exams/submissions/service"
)

func newRegradeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "regrade <submission-id>",
		Short: "Re-run AI grading for one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission id %q", args[0])
			}
			d, err := ctx.deps(cmd.Context())
			if err != nil {
				return err
			}
			svc := subService.NewService(d.DB, d.Store, d.Grader)
			sub, err := svc.RegradeByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "submission %s: %s\n", sub.ID, sub.Status)
			if sub.Status == constants.SubmissionGradingFailed {
				fmt.Fprintf(out, "error: %s\n", sub.GradingMeta.Data().Error)
				return nil
			}
			fmt.Fprintln(out, sub.GradeText())
			return nil
		},
	}
}
