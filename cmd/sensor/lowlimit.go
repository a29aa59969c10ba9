package sensor

import (
	"context"
	"strconv"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var lowLimitSensorId string

var lowLimitCmd = &cobra.Command{
	Use:   "low-limit [percent]",
	Short: "Set the minimum fan speed enforced by a sensor",
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

		if err := commandExecutor.SetSensorLowLimit(ctx, lowLimitSensorId, limit); err != nil {
			return err
		}
		ui.Info("Low limit of sensor %s set to %d%%", lowLimitSensorId, limit)
		return nil
	},
}

func init() {
	lowLimitCmd.Flags().StringVarP(
		&lowLimitSensorId,
		"id", "i",
		"",
		"Sensor name as reported by the controller",
	)
	_ = lowLimitCmd.MarkFlagRequired("id")

	Command.AddCommand(lowLimitCmd)
}
