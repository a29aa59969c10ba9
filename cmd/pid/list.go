package pid

import (
	"context"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current PID algorithm records to console",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		client := ilo.NewClient(configuration.CurrentConfig.Ilo)
		snapshot, err := client.Pids(context.Background())
		if err != nil {
			return err
		}

		for _, record := range snapshot.Records {
			if !record.Active {
				continue
			}
			ui.Printfln("pid %d: setpoint=%.1f output=%.1f lo=%.0f hi=%.0f",
				record.Number, record.SetPoint, record.Output, record.LowLimit, record.HighLimit)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
