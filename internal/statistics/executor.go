package statistics

import (
	"github.com/ilosync/ilosync/internal/executor"
	"github.com/prometheus/client_golang/prometheus"
)

const commandSubsystem = "command"

type ExecutorCollector struct {
	executor *executor.Executor

	completed   *prometheus.Desc
	failed      *prometheus.Desc
	durationAvg *prometheus.Desc
}

func NewExecutorCollector(executor *executor.Executor) *ExecutorCollector {
	return &ExecutorCollector{
		executor: executor,
		completed: prometheus.NewDesc(prometheus.BuildFQName(namespace, commandSubsystem, "completed_total"),
			"Total number of completed commands per operation",
			[]string{"operation"}, nil,
		),
		failed: prometheus.NewDesc(prometheus.BuildFQName(namespace, commandSubsystem, "failed_total"),
			"Total number of failed commands per operation",
			[]string{"operation"}, nil,
		),
		durationAvg: prometheus.NewDesc(prometheus.BuildFQName(namespace, commandSubsystem, "duration_avg_seconds"),
			"Rolling average duration of recent commands",
			nil, nil,
		),
	}
}

func (collector *ExecutorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.completed
	ch <- collector.failed
	ch <- collector.durationAvg
}

func (collector *ExecutorCollector) Collect(ch chan<- prometheus.Metric) {
	counters, _, durationAvg := collector.executor.Stats()
	for operation, stats := range counters {
		ch <- prometheus.MustNewConstMetric(collector.completed, prometheus.CounterValue,
			float64(stats.Completed), string(operation))
		ch <- prometheus.MustNewConstMetric(collector.failed, prometheus.CounterValue,
			float64(stats.Failed), string(operation))
	}
	ch <- prometheus.MustNewConstMetric(collector.durationAvg, prometheus.GaugeValue, durationAvg)
}
