package history

import (
	"context"
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/ilosync/ilosync/internal/util"
	"github.com/spf13/cobra"
)

var (
	graphMetric   string
	rangeMinutes  int
	bucketMinutes int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Graph an aggregated metric series on the console",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		domain, err := ilo.ParseDomain(domainFlag)
		if err != nil {
			return err
		}

		store := openStore()
		defer func() {
			_ = store.Close()
		}()

		timeRange := time.Duration(rangeMinutes) * time.Minute
		bucket := time.Duration(bucketMinutes) * time.Minute
		points, err := store.Aggregate(context.Background(), domain, timeRange, bucket, time.Now())
		if err != nil {
			return err
		}

		values := make([]float64, 0, len(points))
		for _, point := range points {
			if point.Metric != graphMetric {
				continue
			}
			values = append(values, point.Avg)
		}
		if len(values) == 0 {
			return fmt.Errorf("no samples for metric %q in %s over the last %s", graphMetric, domain, timeRange)
		}

		caption := fmt.Sprintf("%s / %s (avg per %s, last %s)", domain, graphMetric, bucket, timeRange)
		graph := asciigraph.Plot(
			values,
			asciigraph.Height(util.Coerce(len(values), 5, 15)),
			asciigraph.Width(100),
			asciigraph.Caption(caption),
		)
		ui.Printfln("%s", graph)
		ui.Printfln("min %.1f  avg %.1f  max %.1f  over %d buckets",
			util.Min(values), util.Avg(values), util.Max(values), len(values))
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVarP(
		&graphMetric,
		"metric", "m",
		"",
		"Metric name within the domain, e.g. a sensor name or \"present\" for power",
	)
	_ = graphCmd.MarkFlagRequired("metric")
	graphCmd.Flags().IntVarP(&rangeMinutes, "range", "r", 60, "Time range to graph, in minutes")
	graphCmd.Flags().IntVarP(&bucketMinutes, "bucket", "b", 5, "Aggregation bucket size, in minutes")

	Command.AddCommand(graphCmd)
}
