package executor

import (
	"context"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
	"github.com/ilosync/ilosync/internal/shell"
	"github.com/ilosync/ilosync/internal/ui"
	"github.com/ilosync/ilosync/internal/util"
)

type Status string

const (
	StatusQueued    Status = "Queued"
	StatusExecuting Status = "Executing"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Invalidator is notified with the affected domains after a successful
// mutating command. Satisfied by cache.Invalidator.
type Invalidator interface {
	Invalidate(domain ilo.Domain)
}

// Outcome records the terminal state of one command.
type Outcome struct {
	Operation Operation     `json:"operation"`
	Status    Status        `json:"status"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

type OperationStats struct {
	Completed uint64
	Failed    uint64
}

type job struct {
	command command
	done    chan error
}

// Executor serializes all mutating commands onto the single command channel.
// Commands are processed strictly FIFO by one worker goroutine; while one is
// executing, new ones wait in the bounded queue and are never interleaved,
// because the channel is one ordered session and interleaved writes would
// corrupt device state.
type Executor struct {
	channel     shell.Channel
	ledger      *overrides.Ledger
	invalidator Invalidator
	timeout     time.Duration
	now         func() time.Time

	// fanNames and fanName resolve the currently known fans for bulk and
	// per-index commands; wired to the fans cache entry at startup.
	fanNames func() []string
	fanName  func(index int) (string, bool)

	queue chan *job

	mu          sync.Mutex
	counters    map[Operation]OperationStats
	lastOutcome Outcome
	durations   *rolling.PointPolicy
}

func NewExecutor(
	channel shell.Channel,
	ledger *overrides.Ledger,
	invalidator Invalidator,
	config configuration.CommandConfig,
	fanNames func() []string,
	fanName func(index int) (string, bool),
) *Executor {
	return &Executor{
		channel:     channel,
		ledger:      ledger,
		invalidator: invalidator,
		timeout:     config.Timeout,
		now:         time.Now,
		fanNames:    fanNames,
		fanName:     fanName,
		queue:       make(chan *job, config.QueueSize),
		counters:    map[Operation]OperationStats{},
		durations:   util.CreateRollingWindow(32),
	}
}

// Run processes queued commands until ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case queued := <-e.queue:
			queued.done <- e.execute(ctx, queued.command)
		}
	}
}

// submit enqueues the command and waits for its terminal state. When the
// queue is full the command is rejected immediately instead of blocking the
// caller behind a possibly-stuck device.
func (e *Executor) submit(ctx context.Context, cmd command) error {
	queued := &job{
		command: cmd,
		done:    make(chan error, 1),
	}

	select {
	case e.queue <- queued:
	default:
		return hwerr.New(hwerr.KindValidation,
			"command queue is full (%d pending), not accepting %s", cap(e.queue), cmd.operation)
	}

	select {
	case <-ctx.Done():
		// the command stays queued and will still run; the caller just
		// stopped waiting for it
		return hwerr.Wrap(hwerr.KindCommandTimeout, ctx.Err(), "waiting for %s", cmd.operation)
	case err := <-queued.done:
		return err
	}
}

func (e *Executor) execute(ctx context.Context, cmd command) error {
	started := e.now()

	cmdCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var runErr error
	for _, line := range cmd.shellCommands {
		ui.Debug("Executing controller command: %s", line)
		if _, runErr = e.channel.Execute(cmdCtx, line); runErr != nil {
			break
		}
	}

	if runErr == nil && cmd.onSuccess != nil {
		// the device has applied the change; a ledger failure at this point
		// is still a command failure for the caller, never silently ignored
		runErr = cmd.onSuccess()
	}

	duration := e.now().Sub(started)
	e.record(cmd.operation, started, duration, runErr)

	if runErr != nil {
		// no automatic retry: blindly re-running a mutating command could
		// double-apply it
		return runErr
	}

	for _, domain := range cmd.affected {
		e.invalidator.Invalidate(domain)
	}
	return nil
}

func (e *Executor) record(operation Operation, started time.Time, duration time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.counters[operation]
	outcome := Outcome{
		Operation: operation,
		StartedAt: started,
		Duration:  duration,
	}
	if err != nil {
		stats.Failed++
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
	} else {
		stats.Completed++
		outcome.Status = StatusCompleted
	}
	e.counters[operation] = stats
	e.lastOutcome = outcome
	e.durations.Append(duration.Seconds())
}

// Stats returns a copy of the per-operation counters, the most recent
// outcome, and the rolling average command duration in seconds.
func (e *Executor) Stats() (map[Operation]OperationStats, Outcome, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	counters := make(map[Operation]OperationStats, len(e.counters))
	for operation, stats := range e.counters {
		counters[operation] = stats
	}
	avg := e.durations.Reduce(rolling.Avg)
	return counters, e.lastOutcome, avg
}
