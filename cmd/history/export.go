package history

import (
	"bytes"
	"context"
	"time"

	"github.com/ilosync/ilosync/internal/history"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportHours  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a metric series of a domain to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()

		domain, err := ilo.ParseDomain(domainFlag)
		if err != nil {
			return err
		}
		format, err := history.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		store := openStore()
		defer func() {
			_ = store.Close()
		}()

		to := time.Now()
		from := to.Add(-time.Duration(exportHours) * time.Hour)

		var buf bytes.Buffer
		if err := store.Export(context.Background(), &buf, domain, format, from, to); err != nil {
			return err
		}
		if err := atomic.WriteFile(exportOutput, &buf); err != nil {
			return err
		}

		ui.Info("Exported %s history of the last %dh to %s", domain, exportHours, exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format (csv, json, txt)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	_ = exportCmd.MarkFlagRequired("output")
	exportCmd.Flags().IntVarP(&exportHours, "hours", "t", 24, "Time range to export, in hours")

	Command.AddCommand(exportCmd)
}
