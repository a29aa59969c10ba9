package fan

import (
	"context"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Return all fans to firmware control",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		ctx := context.Background()
		commandExecutor, cleanup := newExecutor(ctx, nil)
		defer cleanup()

		if err := commandExecutor.UnlockFanControl(ctx); err != nil {
			return err
		}
		ui.Info("Fan control unlocked")
		return nil
	},
}

func init() {
	Command.AddCommand(unlockCmd)
}
