package sensor

import (
	"context"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current sensor readings to console",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		client := ilo.NewClient(configuration.CurrentConfig.Ilo)
		snapshot, err := client.Sensors(context.Background())
		if err != nil {
			return err
		}

		for _, sensor := range snapshot.Sensors {
			ui.Printfln("%s (%s): %.1f [%s]", sensor.Name, sensor.Context, sensor.Reading, sensor.Status)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
