package history

import (
	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/history"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "history",
	Short:            "Inspect and export recorded telemetry history",
	Long:             ``,
	TraverseChildren: true,
}

var domainFlag string

func init() {
	Command.PersistentFlags().StringVarP(
		&domainFlag,
		"domain", "d",
		string(ilo.DomainSensors),
		"Telemetry domain (sensors, fans, power, pid)",
	)
}

func loadConfig() {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(configPath); err != nil {
		ui.Fatal(err.Error())
	}
}

// openStore opens the history database of a running or previously run daemon.
// The store uses WAL journaling, so concurrent reads are safe.
func openStore() *history.Store {
	store, err := history.NewStore(configuration.CurrentConfig.History)
	if err != nil {
		ui.Fatal("Unable to open history database: %v", err)
	}
	return store
}
