package sensor

import (
	"context"
	"strconv"

	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var sensorId string

var overrideCmd = &cobra.Command{
	Use:   "override [value]",
	Short: "Force the reading of a sensor until reset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}

		loadConfig()

		ctx := context.Background()
		commandExecutor, cleanup := newExecutor(ctx)
		defer cleanup()

		if err := commandExecutor.OverrideSensor(ctx, sensorId, value); err != nil {
			return err
		}
		ui.Info("Sensor %s overridden to %.1f", sensorId, value)
		return nil
	},
}

func init() {
	overrideCmd.Flags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor name as reported by the controller",
	)
	_ = overrideCmd.MarkFlagRequired("id")

	Command.AddCommand(overrideCmd)
}
