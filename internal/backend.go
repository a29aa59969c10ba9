package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilosync/ilosync/internal/api"
	"github.com/ilosync/ilosync/internal/cache"
	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/executor"
	"github.com/ilosync/ilosync/internal/history"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
	"github.com/ilosync/ilosync/internal/shell"
	"github.com/ilosync/ilosync/internal/statistics"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunDaemon() {
	config := configuration.CurrentConfig

	client := ilo.NewClient(config.Ilo)

	ledger := overrides.NewLedger(overrides.NewStore(config.Overrides.DbPath))
	if err := ledger.Init(); err != nil {
		ui.Fatal("Unable to load override ledger: %v", err)
	}

	historyStore, err := history.NewStore(config.History)
	if err != nil {
		ui.Fatal("Unable to open history store: %v", err)
	}
	defer func() {
		_ = historyStore.Close()
	}()

	pollingCache := cache.NewCache(client, ledger, historyStore, config.Polling)
	invalidator := cache.NewInvalidator(pollingCache, config.Command.FanSettleDelay, config.Command.SensorSettleDelay)
	defer invalidator.Stop()

	channel := shell.NewSshChannel(config.Ilo)
	defer func() {
		_ = channel.Close()
	}()

	commandExecutor := executor.NewExecutor(
		channel, ledger, invalidator, config.Command,
		func() []string { return cachedFanNames(pollingCache) },
		func(index int) (string, bool) { return cachedFanName(pollingCache, index) },
	)

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === per-domain telemetry pollers
		for _, domain := range ilo.AllDomains() {
			d := domain
			g.Add(func() error {
				err := pollingCache.RunPoller(ctx, d)
				ui.Info("Poller for domain %s stopped.", d)
				return err
			}, func(err error) {
				if err != nil {
					ui.Warning("Error polling domain %s: %v", d, err)
				}
			})
		}
	}
	{
		// === command executor worker
		g.Add(func() error {
			err := commandExecutor.Run(ctx)
			ui.Info("Command executor stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error executing commands: %v", err)
			}
		})
	}
	{
		// === history retention sweep
		g.Add(func() error {
			err := historyStore.RunRetention(ctx, config.History.SweepInterval)
			ui.Info("History retention sweep stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error sweeping history: %v", err)
			}
		})
	}
	{
		enabled := config.Api.Enabled
		if enabled {
			// === REST api
			echoRest := api.CreateRestService(&api.Deps{
				Cache:       pollingCache,
				Executor:    commandExecutor,
				Invalidator: invalidator,
				History:     historyStore,
				Ledger:      ledger,
			})
			g.Add(func() error {
				addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)
				if err := echoRest.Start(addr); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := echoRest.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api: %v", err)
				} else {
					ui.Info("REST api stopped.")
				}
			})
		}
	}
	{
		enabled := config.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			statistics.Register(statistics.NewCacheCollector(pollingCache))
			statistics.Register(statistics.NewExecutorCollector(commandExecutor))
			statistics.Register(statistics.NewHistoryCollector(historyStore))

			port := config.Statistics.Port
			addr := fmt.Sprintf(":%d", port)
			server := &http.Server{Addr: addr, Handler: promhttp.Handler()}

			g.Add(func() error {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: %v", err)
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// cachedFanNames lists the fans from the last successful poll, in snapshot
// order, matching the controller's fan indexes.
func cachedFanNames(pollingCache *cache.Cache) []string {
	entry, exists := pollingCache.Entry(ilo.DomainFans)
	if !exists {
		return nil
	}
	snapshot, ok := entry.Data.(*ilo.FanSnapshot)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(snapshot.Fans))
	for _, fan := range snapshot.Fans {
		names = append(names, fan.Name)
	}
	return names
}

func cachedFanName(pollingCache *cache.Cache, index int) (string, bool) {
	names := cachedFanNames(pollingCache)
	if index < 0 || index >= len(names) {
		return "", false
	}
	return names[index], true
}
