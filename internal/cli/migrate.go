package cli

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{migrate: true})
		if err != nil {
			return err
		}
		defer a.stop()

		if err := a.start(cmd.Context()); err != nil {
			return err
		}
		logger.Info("Migrations applied")
		return nil
	},
}
