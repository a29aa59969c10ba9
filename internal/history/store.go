package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"

	_ "github.com/mattn/go-sqlite3"
)

// Point is one recorded snapshot. Append-only, never mutated after write.
type Point struct {
	Domain    ilo.Domain      `json:"domain"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// AggregatedPoint is one bucket of one metric series.
type AggregatedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Metric    string    `json:"metric"`
	Avg       float64   `json:"avg"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Samples   int       `json:"samples"`
}

// Store is the durable append-only time series of periodic snapshots.
type Store struct {
	db        *sql.DB
	retention time.Duration

	mu         sync.Mutex
	lastAppend map[ilo.Domain]time.Time
}

func NewStore(config configuration.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(config.DbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating history db directory: %w", err)
	}

	// WAL keeps range queries readable while the retention sweep deletes
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", config.DbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:         db,
		retention:  config.Retention,
		lastAppend: map[ilo.Domain]time.Time{},
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS points (
            id        INTEGER PRIMARY KEY AUTOINCREMENT,
            domain    TEXT    NOT NULL,
            timestamp INTEGER NOT NULL,
            payload   TEXT    NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_points_domain_ts ON points(domain, timestamp);

        CREATE TABLE IF NOT EXISTS series (
            domain    TEXT    NOT NULL,
            metric    TEXT    NOT NULL,
            timestamp INTEGER NOT NULL,
            value     REAL    NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_series_domain_metric_ts ON series(domain, metric, timestamp);
    `)
	if err != nil {
		return fmt.Errorf("initializing history schema: %w", err)
	}
	return nil
}

// Append records a snapshot for its domain. Timestamps must be monotonically
// increasing per domain; an out-of-order snapshot is dropped, not reordered.
func (s *Store) Append(ctx context.Context, snapshot ilo.Snapshot) error {
	domain := snapshot.Domain()
	timestamp := snapshot.Taken()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, exists := s.lastAppend[domain]; exists && !timestamp.After(last) {
		ui.Warning("Dropping out-of-order history point for %s (%s <= %s)",
			domain, timestamp.Format(time.RFC3339), last.Format(time.RFC3339))
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshalling %s snapshot: %w", domain, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history append: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO points (domain, timestamp, payload) VALUES (?, ?, ?)`,
		string(domain), timestamp.Unix(), string(payload),
	); err != nil {
		return fmt.Errorf("appending %s history point: %w", domain, err)
	}

	for _, metric := range snapshot.Metrics() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO series (domain, metric, timestamp, value) VALUES (?, ?, ?, ?)`,
			string(domain), metric.Name, timestamp.Unix(), metric.Value,
		); err != nil {
			return fmt.Errorf("appending %s series sample: %w", domain, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing history append: %w", err)
	}

	s.lastAppend[domain] = timestamp
	return nil
}

// Range returns all points of a domain within [from, to], ordered by
// timestamp ascending.
func (s *Store) Range(ctx context.Context, domain ilo.Domain, from, to time.Time) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, payload FROM points
         WHERE domain = ? AND timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp ASC`,
		string(domain), from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s history: %w", domain, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var points []Point
	for rows.Next() {
		var unix int64
		var payload string
		if err := rows.Scan(&unix, &payload); err != nil {
			return nil, fmt.Errorf("scanning %s history row: %w", domain, err)
		}
		points = append(points, Point{
			Domain:    domain,
			Timestamp: time.Unix(unix, 0),
			Payload:   json.RawMessage(payload),
		})
	}
	return points, rows.Err()
}

// Aggregate buckets the metric series of a domain over the trailing time
// range. Bucket boundaries are floor(timestamp / bucket) * bucket. Buckets
// without samples are omitted, so consumers must handle gaps.
func (s *Store) Aggregate(ctx context.Context, domain ilo.Domain, timeRange, bucket time.Duration, now time.Time) ([]AggregatedPoint, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("bucket size must be positive, got %s", bucket)
	}
	bucketSeconds := int64(bucket.Seconds())
	from := now.Add(-timeRange).Unix()

	rows, err := s.db.QueryContext(ctx,
		`SELECT (timestamp / ?) * ? AS bucket, metric,
                AVG(value), MIN(value), MAX(value), COUNT(*)
         FROM series
         WHERE domain = ? AND timestamp >= ? AND timestamp <= ?
         GROUP BY bucket, metric
         ORDER BY bucket ASC, metric ASC`,
		bucketSeconds, bucketSeconds, string(domain), from, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s history: %w", domain, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var aggregated []AggregatedPoint
	for rows.Next() {
		var bucketUnix int64
		var point AggregatedPoint
		if err := rows.Scan(&bucketUnix, &point.Metric, &point.Avg, &point.Min, &point.Max, &point.Samples); err != nil {
			return nil, fmt.Errorf("scanning %s aggregation row: %w", domain, err)
		}
		point.Timestamp = time.Unix(bucketUnix, 0)
		aggregated = append(aggregated, point)
	}
	return aggregated, rows.Err()
}

// Sweep removes points older than the retention horizon and returns how many
// rows were deleted.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int64, error) {
	horizon := now.Add(-s.retention).Unix()

	result, err := s.db.ExecContext(ctx, `DELETE FROM points WHERE timestamp < ?`, horizon)
	if err != nil {
		return 0, fmt.Errorf("sweeping history points: %w", err)
	}
	deleted, _ := result.RowsAffected()

	if _, err = s.db.ExecContext(ctx, `DELETE FROM series WHERE timestamp < ?`, horizon); err != nil {
		return deleted, fmt.Errorf("sweeping history series: %w", err)
	}
	return deleted, nil
}

// RunRetention runs the periodic retention sweep until ctx is done.
func (s *Store) RunRetention(ctx context.Context, sweepInterval time.Duration) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := s.Sweep(ctx, time.Now())
			if err != nil {
				ui.Warning("History retention sweep failed: %v", err)
				continue
			}
			if deleted > 0 {
				ui.Debug("History retention sweep removed %d points", deleted)
			}
		}
	}
}

// Size returns the number of stored points, for the statistics exporter.
func (s *Store) Size(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points`).Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
