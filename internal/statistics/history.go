package statistics

import (
	"context"
	"time"

	"github.com/ilosync/ilosync/internal/history"
	"github.com/prometheus/client_golang/prometheus"
)

const historySubsystem = "history"

type HistoryCollector struct {
	store *history.Store

	points *prometheus.Desc
}

func NewHistoryCollector(store *history.Store) *HistoryCollector {
	return &HistoryCollector{
		store: store,
		points: prometheus.NewDesc(prometheus.BuildFQName(namespace, historySubsystem, "points"),
			"Number of history points currently stored",
			nil, nil,
		),
	}
}

func (collector *HistoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.points
}

func (collector *HistoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := collector.store.Size(ctx)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(collector.points, prometheus.GaugeValue, float64(count))
}
