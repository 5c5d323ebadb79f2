package commands

import (
	"github.com/spf13/cobra"

	"automark_backend/internals/databases/migrations"
	"automark_backend/internals/seeds"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var usersFile string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users and the TEST123 exam",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.deps(cmd.Context())
			if err != nil {
				return err
			}
			if err := migrations.Run(d.DB); err != nil {
				return err
			}
			return seeds.RunAllSeeds(cmd.Context(), d.DB, d.Store, d.Cfg, usersFile)
		},
	}
	cmd.Flags().StringVar(&usersFile, "users", "", "JSON file with users to seed instead of the demo accounts")
	return cmd
}
