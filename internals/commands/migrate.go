package commands

import (
	"github.com/spf13/cobra"

	"automark_backend/internals/databases/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "AutoMigrate all models",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			return migrations.Run(db)
		},
	}
}
