package pid

import (
	"context"
	"strconv"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var pidNumber int

var lowLimitCmd = &cobra.Command{
	Use:   "low-limit [percent]",
	Short: "Set the minimum output of a PID algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		loadConfig()

		ctx := context.Background()
		commandExecutor, cleanup := newExecutor(ctx)
		defer cleanup()

		if err := commandExecutor.SetPidLowLimit(ctx, pidNumber, limit); err != nil {
			return err
		}
		ui.Info("Low limit of PID %d set to %d%%", pidNumber, limit)
		return nil
	},
}

func init() {
	lowLimitCmd.Flags().IntVarP(
		&pidNumber,
		"number", "n",
		0,
		"PID algorithm number as reported by the controller",
	)
	_ = lowLimitCmd.MarkFlagRequired("number")

	Command.AddCommand(lowLimitCmd)
}
