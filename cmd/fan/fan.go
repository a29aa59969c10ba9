package fan

import (
	"context"

	"github.com/ilosync/ilosync/internal/cache"
	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/executor"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
	"github.com/ilosync/ilosync/internal/shell"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func loadConfig() {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(configPath); err != nil {
		ui.Fatal(err.Error())
	}
}

// fetchFanNames queries the controller once for the current fan list, so
// per-index commands resolve against live state.
func fetchFanNames(ctx context.Context) []string {
	client := ilo.NewClient(configuration.CurrentConfig.Ilo)
	snapshot, err := client.Fans(ctx)
	if err != nil {
		ui.Warning("Unable to list fans: %v", err)
		return nil
	}
	names := make([]string, 0, len(snapshot.Fans))
	for _, fan := range snapshot.Fans {
		names = append(names, fan.Name)
	}
	return names
}

// newExecutor wires a one-shot command executor the same way the daemon
// does, minus the background pollers.
func newExecutor(ctx context.Context, fanNames []string) (*executor.Executor, func()) {
	config := configuration.CurrentConfig

	ledger := overrides.NewLedger(overrides.NewStore(config.Overrides.DbPath))
	if err := ledger.Init(); err != nil {
		ui.Fatal("Unable to load override ledger: %v", err)
	}

	client := ilo.NewClient(config.Ilo)
	pollingCache := cache.NewCache(client, ledger, nil, config.Polling)
	invalidator := cache.NewInvalidator(pollingCache, config.Command.FanSettleDelay, config.Command.SensorSettleDelay)
	channel := shell.NewSshChannel(config.Ilo)

	commandExecutor := executor.NewExecutor(
		channel, ledger, invalidator, config.Command,
		func() []string { return fanNames },
		func(index int) (string, bool) {
			if index < 0 || index >= len(fanNames) {
				return "", false
			}
			return fanNames[index], true
		},
	)

	workerCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = commandExecutor.Run(workerCtx)
	}()

	cleanup := func() {
		cancel()
		invalidator.Stop()
		_ = channel.Close()
	}
	return commandExecutor, cleanup
}
