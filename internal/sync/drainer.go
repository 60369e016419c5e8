// Package sync replays queued project cascades against the remote store
// in the background.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/workpad/internal/outbox"
	"github.com/nhle/workpad/internal/postgrest"
)

// DrainState represents the current state of the drainer.
type DrainState int

const (
	DrainIdle DrainState = iota
	DrainRunning
	DrainError
)

// DrainStatus is a snapshot of the drainer.
type DrainStatus struct {
	State   DrainState
	LastRun time.Time
	Pending int
	Error   error
}

// DrainResultMsg is a tea.Msg sent when a drain pass completes.
type DrainResultMsg struct {
	Replayed  int
	Remaining int
	Error     error

	// AuthFailed is set when the store rejected the API key, which no
	// amount of retrying will fix.
	AuthFailed bool
}

// Queue is the outbox as seen by the drainer.
type Queue interface {
	Pending(ctx context.Context) ([]outbox.Entry, error)
	Complete(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string, cause error) error
}

// Target applies a cascade. store.Store satisfies it.
type Target interface {
	MarkInvoicesPaid(ctx context.Context, projectID string) error
}

// passTimeout is the maximum time allowed for a single drain pass.
const passTimeout = 30 * time.Second

// Drainer periodically replays queued cascades.
type Drainer struct {
	queue     Queue
	target    Target
	interval  time.Duration
	logger    *slog.Logger
	status    DrainStatus
	resultCh  chan DrainResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Drainer. A non-positive interval means one minute.
func New(q Queue, target Target, interval time.Duration, logger *slog.Logger) *Drainer {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{
		queue:     q,
		target:    target,
		interval:  interval,
		logger:    logger,
		resultCh:  make(chan DrainResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the drain loop and subscribes to
// its results.
func (d *Drainer) Start() tea.Cmd {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()

	go d.loop()

	return d.waitForResult()
}

// Stop halts the drain loop.
func (d *Drainer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	close(d.stopCh)
	d.running = false
}

// Trigger asks the loop for an immediate pass.
func (d *Drainer) Trigger() tea.Cmd {
	select {
	case d.triggerCh <- struct{}{}:
	default:
		// A pass is already requested.
	}
	return nil
}

// Refresh re-reads the queue length so Status counts cascades queued
// since the last pass.
func (d *Drainer) Refresh(ctx context.Context) error {
	entries, err := d.queue.Pending(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.status.Pending = len(entries)
	d.mu.Unlock()
	return nil
}

// Status returns the current drainer status.
func (d *Drainer) Status() DrainStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Drainer) loop() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.pass()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.pass()
		case <-d.triggerCh:
			d.pass()
		}
	}
}

func (d *Drainer) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()
	d.sendResult(d.DrainOnce(ctx))
}

// DrainOnce replays every queued cascade once. Successful entries leave
// the queue; failed ones stay with their attempt count bumped. It stops
// early when the store rejects the API key.
func (d *Drainer) DrainOnce(ctx context.Context) DrainResultMsg {
	d.setStatus(DrainRunning, -1, nil)

	entries, err := d.queue.Pending(ctx)
	if err != nil {
		d.setStatus(DrainError, -1, err)
		return DrainResultMsg{Error: err}
	}

	var (
		result  DrainResultMsg
		lastErr error
	)
	for _, e := range entries {
		err := d.target.MarkInvoicesPaid(ctx, e.ProjectID)
		if err == nil {
			if cerr := d.queue.Complete(ctx, e.ID); cerr != nil {
				lastErr = cerr
				continue
			}
			result.Replayed++
			d.logger.Info("cascade replayed", "project_id", e.ProjectID, "attempts", e.Attempts+1)
			continue
		}

		lastErr = err
		if rerr := d.queue.RecordFailure(ctx, e.ID, err); rerr != nil {
			d.logger.Warn("recording cascade failure", "project_id", e.ProjectID, "error", rerr)
		}
		d.logger.Warn("cascade replay failed", "project_id", e.ProjectID, "error", err)

		if postgrest.IsAuthError(err) {
			result.AuthFailed = true
			break
		}
	}

	result.Remaining = len(entries) - result.Replayed
	// Cascades queued again while this pass ran are still pending.
	if rest, err := d.queue.Pending(ctx); err == nil {
		result.Remaining = len(rest)
	}
	if lastErr != nil {
		result.Error = fmt.Errorf("%d of %d cascades not replayed: %w",
			result.Remaining, len(entries), lastErr)
		d.setStatus(DrainError, result.Remaining, result.Error)
		return result
	}

	d.setStatus(DrainIdle, result.Remaining, nil)
	return result
}

// setStatus updates the status. A negative pending count leaves the
// previous value.
func (d *Drainer) setStatus(state DrainState, pending int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.status.State = state
	d.status.Error = err
	if pending >= 0 {
		d.status.Pending = pending
	}
	if state != DrainRunning {
		d.status.LastRun = time.Now()
	}
}

// sendResult sends a DrainResultMsg on the result channel without blocking.
func (d *Drainer) sendResult(msg DrainResultMsg) {
	select {
	case d.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}

func (d *Drainer) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-d.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next drain result.
// Call it after handling a DrainResultMsg to keep listening.
func (d *Drainer) WaitForNextResult() tea.Cmd {
	return d.waitForResult()
}
