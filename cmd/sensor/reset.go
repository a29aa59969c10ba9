package sensor

import (
	"context"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all sensor overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		ctx := context.Background()
		commandExecutor, cleanup := newExecutor(ctx)
		defer cleanup()

		if err := commandExecutor.ResetOverrides(ctx); err != nil {
			return err
		}
		ui.Info("Sensor overrides cleared")
		return nil
	},
}

func init() {
	Command.AddCommand(resetCmd)
}
