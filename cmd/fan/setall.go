package fan

import (
	"context"
	"strconv"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var setAllCmd = &cobra.Command{
	Use:   "set-all [speed]",
	Short: "Lock all fans at the given speed ([10..100] percent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speed, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		loadConfig()

		ctx := context.Background()
		commandExecutor, cleanup := newExecutor(ctx, fetchFanNames(ctx))
		defer cleanup()

		if err := commandExecutor.SetAllFanSpeeds(ctx, speed); err != nil {
			return err
		}
		ui.Info("All fans locked at %d%%", speed)
		return nil
	},
}

func init() {
	Command.AddCommand(setAllCmd)
}
