package fan

import (
	"context"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current fan readings to console",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		client := ilo.NewClient(configuration.CurrentConfig.Ilo)
		snapshot, err := client.Fans(context.Background())
		if err != nil {
			return err
		}

		for _, fan := range snapshot.Fans {
			ui.Printfln("%s: %d%% (%s, %s)", fan.Name, fan.Speed, fan.Status, fan.Health)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
