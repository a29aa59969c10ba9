package fan

import (
	"context"
	"strconv"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var fanIndex int

var lockCmd = &cobra.Command{
	Use:   "lock [speed]",
	Short: "Lock a single fan at the given speed ([10..100] percent)",
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

		if err := commandExecutor.LockFanAtSpeed(ctx, fanIndex, speed); err != nil {
			return err
		}
		ui.Info("Fan %d locked at %d%%", fanIndex, speed)
		return nil
	},
}

func init() {
	lockCmd.Flags().IntVarP(
		&fanIndex,
		"index", "i",
		0,
		"Fan index as reported by the controller",
	)
	_ = lockCmd.MarkFlagRequired("index")

	Command.AddCommand(lockCmd)
}
