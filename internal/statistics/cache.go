package statistics

import (
	"time"

	"github.com/ilosync/ilosync/internal/cache"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/prometheus/client_golang/prometheus"
)

const cacheSubsystem = "cache"

type CacheCollector struct {
	cache *cache.Cache

	age        *prometheus.Desc
	stale      *prometheus.Desc
	pollErrors *prometheus.Desc
}

func NewCacheCollector(cache *cache.Cache) *CacheCollector {
	return &CacheCollector{
		cache: cache,
		age: prometheus.NewDesc(prometheus.BuildFQName(namespace, cacheSubsystem, "age_seconds"),
			"Seconds since the last successful poll of the domain",
			[]string{"domain"}, nil,
		),
		stale: prometheus.NewDesc(prometheus.BuildFQName(namespace, cacheSubsystem, "stale"),
			"Whether the domain's entry is currently considered stale",
			[]string{"domain"}, nil,
		),
		pollErrors: prometheus.NewDesc(prometheus.BuildFQName(namespace, cacheSubsystem, "poll_errors_total"),
			"Total number of failed polls for the domain",
			[]string{"domain"}, nil,
		),
	}
}

func (collector *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.age
	ch <- collector.stale
	ch <- collector.pollErrors
}

func (collector *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, domain := range ilo.AllDomains() {
		label := string(domain)

		entry, exists := collector.cache.Entry(domain)
		ch <- prometheus.MustNewConstMetric(collector.pollErrors, prometheus.CounterValue,
			float64(entry.ErrorCount), label)
		if !exists || entry.Data == nil {
			continue
		}

		result := collector.cache.Read(domain)
		staleValue := 0.0
		if result.Stale {
			staleValue = 1.0
		}
		ch <- prometheus.MustNewConstMetric(collector.stale, prometheus.GaugeValue, staleValue, label)
		ch <- prometheus.MustNewConstMetric(collector.age, prometheus.GaugeValue,
			time.Since(entry.FetchedAt).Seconds(), label)
	}
}
