package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ilo"
)

type Format string

const (
	FormatCsv  Format = "csv"
	FormatJson Format = "json"
	FormatTxt  Format = "txt"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatCsv, FormatJson, FormatTxt:
		return Format(value), nil
	}
	return "", hwerr.New(hwerr.KindValidation, "unknown export format: %s", value)
}

// ContentType returns the MIME type for streamed HTTP export responses.
func (f Format) ContentType() string {
	switch f {
	case FormatCsv:
		return "text/csv"
	case FormatJson:
		return "application/json"
	default:
		return "text/plain"
	}
}

// Export streams the metric series of a domain within [from, to] to w, one
// row at a time. The result set is never materialized in memory.
func (s *Store) Export(ctx context.Context, w io.Writer, domain ilo.Domain, format Format, from, to time.Time) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metric, timestamp, value FROM series
         WHERE domain = ? AND timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp ASC, metric ASC`,
		string(domain), from.Unix(), to.Unix(),
	)
	if err != nil {
		return fmt.Errorf("querying %s export: %w", domain, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	switch format {
	case FormatCsv:
		return exportCsv(rows, w)
	case FormatJson:
		return exportJson(rows, w)
	case FormatTxt:
		return exportTxt(rows, w)
	}
	return hwerr.New(hwerr.KindValidation, "unknown export format: %s", format)
}

type seriesRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSample(rows seriesRows) (metric string, timestamp time.Time, value float64, err error) {
	var unix int64
	if err = rows.Scan(&metric, &unix, &value); err != nil {
		return "", time.Time{}, 0, err
	}
	return metric, time.Unix(unix, 0), value, nil
}

func exportCsv(rows seriesRows, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"metric", "timestamp", "value"}); err != nil {
		return err
	}
	for rows.Next() {
		metric, timestamp, value, err := scanSample(rows)
		if err != nil {
			return err
		}
		record := []string{
			metric,
			timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(value, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return rows.Err()
}

type exportedSample struct {
	Metric    string    `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

func exportJson(rows seriesRows, w io.Writer) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	first := true
	for rows.Next() {
		metric, timestamp, value, err := scanSample(rows)
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		first = false
		if err := encoder.Encode(exportedSample{Metric: metric, Timestamp: timestamp.UTC(), Value: value}); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "]\n"); err != nil {
		return err
	}
	return rows.Err()
}

func exportTxt(rows seriesRows, w io.Writer) error {
	for rows.Next() {
		metric, timestamp, value, err := scanSample(rows)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%g\n", timestamp.UTC().Format(time.RFC3339), metric, value); err != nil {
			return err
		}
	}
	return rows.Err()
}
