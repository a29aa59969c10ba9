package sensor

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
	Use:              "sensor",
	Short:            "Sensor related commands",
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

func newExecutor(ctx context.Context) (*executor.Executor, func()) {
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
		func() []string { return nil },
		func(index int) (string, bool) { return "", false },
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
