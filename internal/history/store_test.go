package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/stretchr/testify/assert"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(configuration.HistoryConfig{
		DbPath:        filepath.Join(t.TempDir(), "history.db"),
		Retention:     7 * 24 * time.Hour,
		SweepInterval: time.Hour,
	})
	assert.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func powerSnapshot(timestamp time.Time, watts int) *ilo.PowerSnapshot {
	return &ilo.PowerSnapshot{
		PresentPower: watts,
		AveragePower: watts,
		MinPower:     watts - 10,
		MaxPower:     watts + 10,
		PowerCap:     0,
		Timestamp:    timestamp,
	}
}

func TestStore_AppendAndRange(t *testing.T) {
	// GIVEN
	store := testStore(t)
	base := time.Now().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		err := store.Append(context.Background(), powerSnapshot(base.Add(time.Duration(i)*time.Minute), 170+i))
		assert.NoError(t, err)
	}

	// WHEN
	points, err := store.Range(context.Background(), ilo.DomainPower, base, base.Add(time.Hour))

	// THEN
	assert.NoError(t, err)
	assert.Len(t, points, 3)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Timestamp.After(points[i-1].Timestamp))
	}

	var snapshot ilo.PowerSnapshot
	err = json.Unmarshal(points[0].Payload, &snapshot)
	assert.NoError(t, err)
	assert.Equal(t, 170, snapshot.PresentPower)
}

func TestStore_Append_DropsOutOfOrderPoint(t *testing.T) {
	// GIVEN
	store := testStore(t)
	base := time.Now().Truncate(time.Second)

	err := store.Append(context.Background(), powerSnapshot(base, 170))
	assert.NoError(t, err)

	// WHEN an older snapshot arrives
	err = store.Append(context.Background(), powerSnapshot(base.Add(-time.Minute), 180))

	// THEN it is dropped without an error
	assert.NoError(t, err)
	points, err := store.Range(context.Background(), ilo.DomainPower, base.Add(-time.Hour), base.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestStore_Append_DomainsAreIndependent(t *testing.T) {
	// GIVEN
	store := testStore(t)
	base := time.Now().Truncate(time.Second)

	err := store.Append(context.Background(), powerSnapshot(base, 170))
	assert.NoError(t, err)

	// WHEN another domain appends an older timestamp
	err = store.Append(context.Background(), &ilo.FanSnapshot{
		Fans:      []ilo.FanReading{{Name: "Fan 1", Speed: 23}},
		Timestamp: base.Add(-time.Minute),
	})
	assert.NoError(t, err)

	// THEN the fan point is recorded, monotonicity is tracked per domain
	points, err := store.Range(context.Background(), ilo.DomainFans, base.Add(-time.Hour), base.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestStore_Aggregate(t *testing.T) {
	// GIVEN one sample per minute for an hour
	store := testStore(t)
	now := time.Now().Truncate(time.Hour)
	for i := 0; i < 60; i++ {
		err := store.Append(context.Background(), powerSnapshot(now.Add(time.Duration(i-60)*time.Minute), 100+i))
		assert.NoError(t, err)
	}

	// WHEN aggregating into 5 minute buckets
	points, err := store.Aggregate(context.Background(), ilo.DomainPower, time.Hour, 5*time.Minute, now)

	// THEN the "present" series has 12 buckets of 5 samples each
	assert.NoError(t, err)
	var present []AggregatedPoint
	for _, point := range points {
		if point.Metric == "present" {
			present = append(present, point)
		}
	}
	assert.Len(t, present, 12)
	for _, bucket := range present {
		assert.Equal(t, 5, bucket.Samples)
		assert.LessOrEqual(t, bucket.Min, bucket.Avg)
		assert.LessOrEqual(t, bucket.Avg, bucket.Max)
	}
	// first bucket holds samples 100..104
	assert.Equal(t, 102.0, present[0].Avg)
	assert.Equal(t, 100.0, present[0].Min)
	assert.Equal(t, 104.0, present[0].Max)
}

func TestStore_Aggregate_RejectsNonPositiveBucket(t *testing.T) {
	// GIVEN
	store := testStore(t)

	// WHEN
	_, err := store.Aggregate(context.Background(), ilo.DomainPower, time.Hour, 0, time.Now())

	// THEN
	assert.Error(t, err)
}

func TestStore_Sweep(t *testing.T) {
	// GIVEN points on both sides of the retention horizon
	store := testStore(t)
	now := time.Now().Truncate(time.Second)

	err := store.Append(context.Background(), powerSnapshot(now.Add(-8*24*time.Hour), 170))
	assert.NoError(t, err)
	err = store.Append(context.Background(), powerSnapshot(now, 175))
	assert.NoError(t, err)

	// WHEN
	deleted, err := store.Sweep(context.Background(), now)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	size, err := store.Size(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestStore_Sweep_DoesNotDisturbConcurrentRange(t *testing.T) {
	// GIVEN points on both sides of the retention horizon
	store := testStore(t)
	now := time.Now().Truncate(time.Second)
	for i := 0; i < 40; i++ {
		err := store.Append(context.Background(), powerSnapshot(now.Add(-8*24*time.Hour).Add(time.Duration(i)*time.Second), 170))
		assert.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		err := store.Append(context.Background(), powerSnapshot(now.Add(time.Duration(i)*time.Second), 175))
		assert.NoError(t, err)
	}

	from := now.Add(-9 * 24 * time.Hour)
	to := now.Add(time.Minute)

	// WHEN range queries run while the sweep deletes the expired points
	results := make(chan int, 100)
	errs := make(chan error, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			points, err := store.Range(context.Background(), ilo.DomainPower, from, to)
			if err != nil {
				errs <- err
				return
			}
			results <- len(points)
		}
	}()
	for i := 0; i < 20; i++ {
		_, err := store.Sweep(context.Background(), now)
		assert.NoError(t, err)
	}
	wg.Wait()
	close(results)
	close(errs)

	// THEN every reader saw either the full pre-sweep set or the retained
	// set, never a torn one
	for err := range errs {
		assert.NoError(t, err)
	}
	for count := range results {
		assert.Contains(t, []int{50, 10}, count)
	}
}

func TestStore_RunRetention_StopsOnContextCancel(t *testing.T) {
	// GIVEN
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- store.RunRetention(ctx, 10*time.Millisecond)
	}()

	// WHEN
	cancel()

	// THEN
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("retention loop did not stop on context cancel")
	}
}

func TestStore_ExportCsv(t *testing.T) {
	// GIVEN
	store := testStore(t)
	now := time.Now().Truncate(time.Second)
	err := store.Append(context.Background(), powerSnapshot(now, 170))
	assert.NoError(t, err)

	// WHEN
	var buf bytes.Buffer
	err = store.Export(context.Background(), &buf, ilo.DomainPower, FormatCsv, now.Add(-time.Minute), now.Add(time.Minute))

	// THEN
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "metric,timestamp,value", lines[0])
	// one row per power metric
	assert.Len(t, lines, 6)
}

func TestStore_ExportJson(t *testing.T) {
	// GIVEN
	store := testStore(t)
	now := time.Now().Truncate(time.Second)
	err := store.Append(context.Background(), powerSnapshot(now, 170))
	assert.NoError(t, err)

	// WHEN
	var buf bytes.Buffer
	err = store.Export(context.Background(), &buf, ilo.DomainPower, FormatJson, now.Add(-time.Minute), now.Add(time.Minute))

	// THEN
	assert.NoError(t, err)
	var samples []exportedSample
	err = json.Unmarshal(buf.Bytes(), &samples)
	assert.NoError(t, err)
	assert.Len(t, samples, 5)
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"csv", "json", "txt"} {
		format, err := ParseFormat(valid)
		assert.NoError(t, err)
		assert.Equal(t, Format(valid), format)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
