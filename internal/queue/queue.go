// Package queue is the offline write queue: a durable, ordered buffer of
// not-yet-delivered expense submissions, drained when connectivity returns.
// An expense entered while offline is never silently lost; delivery happens
// in submission order with per-item retry.
//
// The durable snapshot is shared state: several processes may enqueue and
// drain over the same key, so every mutation reconciles the in-memory view
// with the snapshot before writing it back.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"onepocket/internal/core"
	"onepocket/internal/storage"
)

// Item is one queued expense submission. The id is locally generated and is
// never reconciled against the eventual server id.
type Item struct {
	ID         string           `json:"id"`
	Form       core.ExpenseForm `json:"data"`
	EnqueuedAt time.Time        `json:"enqueuedAt"`
}

// SendFunc delivers a single queued form to the remote API.
type SendFunc func(ctx context.Context, form core.ExpenseForm) error

// StateStore persists the queue snapshot. GetJSON reports an absent key with
// an error matching storage.ErrNotFound. *storage.LocalState satisfies it.
type StateStore interface {
	GetJSON(ctx context.Context, key string, out any) error
	PutJSON(ctx context.Context, key string, v any) error
}

// Connectivity reports the current online belief and signals offline→online
// transitions. *connectivity.Monitor satisfies it.
type Connectivity interface {
	Online() bool
	Subscribe() <-chan struct{}
}

// Config holds queue configuration.
type Config struct {
	// StateKey is the local-state key the snapshot is stored under.
	StateKey string

	// DrainTimeout bounds one whole drain pass (default: 2m).
	DrainTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		StateKey:     "onepocket_offline_queue",
		DrainTimeout: 2 * time.Minute,
	}
}

// OfflineQueue buffers expense submissions while the API is unreachable.
// It is an explicitly constructed component; storage, delivery and
// connectivity are injected and the composition root owns the lifecycle.
type OfflineQueue struct {
	store  StateStore
	send   SendFunc
	online Connectivity
	config Config

	mu    sync.Mutex
	items []Item
	// unpersisted holds local ids whose snapshot write has not succeeded
	// yet. Reconciliation keeps these in memory; everything else defers to
	// the durable snapshot, which other processes may have changed.
	unpersisted map[string]struct{}

	// Lifecycle management
	lifecycleMu sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// New loads the persisted snapshot and returns a ready queue. A snapshot that
// cannot be read resets the queue to empty; that data loss is accepted and
// logged, not a hard error.
func New(store StateStore, send SendFunc, online Connectivity, config Config) *OfflineQueue {
	q := &OfflineQueue{
		store:       store,
		send:        send,
		online:      online,
		config:      config,
		unpersisted: make(map[string]struct{}),
	}
	ctx := context.Background()
	err := store.GetJSON(ctx, config.StateKey, &q.items)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		// First run, nothing queued yet.
		q.items = nil
	default:
		q.items = nil
		slog.WarnContext(ctx, "Offline queue snapshot unreadable, starting empty",
			"key", config.StateKey, "error", err)
	}
	return q
}

// Enqueue appends a submission and synchronously persists the snapshot so the
// item survives a process exit immediately after. Returns the local id.
func (q *OfflineQueue) Enqueue(form core.ExpenseForm) string {
	item := Item{
		ID:         uuid.NewString(),
		Form:       form,
		EnqueuedAt: time.Now(),
	}

	ctx := context.Background()
	q.mu.Lock()
	q.reconcileLocked(ctx)
	q.items = append(q.items, item)
	q.unpersisted[item.ID] = struct{}{}
	q.persistLocked(ctx)
	q.mu.Unlock()

	slog.Info("Expense queued for later delivery",
		"queue_id", item.ID,
		"category", form.Category,
		"pending", q.Size())
	return item.ID
}

// Drain attempts delivery of every queued item in enqueue order. A failing
// item stays in place for the next drain and does not block later,
// independent items. No-op while offline or when the queue is empty.
func (q *OfflineQueue) Drain(ctx context.Context) {
	if q.online != nil && !q.online.Online() {
		return
	}

	q.mu.Lock()
	q.reconcileLocked(ctx)
	snapshot := make([]Item, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	slog.InfoContext(ctx, "Draining offline queue", "pending", len(snapshot))

	for _, item := range snapshot {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := q.send(ctx, item.Form); err != nil {
			slog.WarnContext(ctx, "Queued expense delivery failed, keeping item",
				"queue_id", item.ID, "error", err)
			continue
		}
		q.remove(ctx, item.ID)
		slog.InfoContext(ctx, "Queued expense delivered", "queue_id", item.ID)
	}
}

// Size returns the number of pending items.
func (q *OfflineQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy of the pending items in enqueue order.
func (q *OfflineQueue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// Start drains any backlog once if currently online, then listens for
// offline→online transitions, draining on each. Returns an error if already
// running.
func (q *OfflineQueue) Start(ctx context.Context) error {
	q.lifecycleMu.Lock()
	if q.running {
		q.lifecycleMu.Unlock()
		return fmt.Errorf("offline queue is already running")
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.doneCh = make(chan struct{})
	q.lifecycleMu.Unlock()

	go q.runLoop(ctx)

	slog.InfoContext(ctx, "Offline queue started", "pending", q.Size())
	return nil
}

// Stop gracefully stops the drain loop.
func (q *OfflineQueue) Stop(ctx context.Context) error {
	q.lifecycleMu.Lock()
	if !q.running {
		q.lifecycleMu.Unlock()
		return nil
	}
	q.lifecycleMu.Unlock()

	close(q.stopCh)

	select {
	case <-q.doneCh:
		slog.InfoContext(ctx, "Offline queue stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Offline queue stop timed out")
		return ctx.Err()
	}

	q.lifecycleMu.Lock()
	q.running = false
	q.lifecycleMu.Unlock()
	return nil
}

func (q *OfflineQueue) runLoop(ctx context.Context) {
	defer close(q.doneCh)

	var edges <-chan struct{}
	if q.online != nil {
		edges = q.online.Subscribe()
	}

	// A loop started while already online never sees an edge, so the backlog
	// is delivered once up front. Drain no-ops when offline or empty.
	drainCtx, cancel := context.WithTimeout(ctx, q.config.DrainTimeout)
	q.Drain(drainCtx)
	cancel()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case _, ok := <-edges:
			if !ok {
				return
			}
			drainCtx, cancel := context.WithTimeout(ctx, q.config.DrainTimeout)
			q.Drain(drainCtx)
			cancel()
		}
	}
}

// remove drops one item by local id and persists the reconciled snapshot, so
// a stale in-memory view never clobbers items another process enqueued.
func (q *OfflineQueue) remove(ctx context.Context, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.reconcileLocked(ctx)
	kept := q.items[:0]
	for _, it := range q.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	q.items = kept
	delete(q.unpersisted, id)
	q.persistLocked(ctx)
}

// reconcileLocked replaces the in-memory view with the durable snapshot,
// which other processes over the same state may have grown or shrunk since
// it was last read. Only items whose own persist failed are carried over
// from memory; they are appended after the durable ones.
func (q *OfflineQueue) reconcileLocked(ctx context.Context) {
	var durable []Item
	if err := q.store.GetJSON(ctx, q.config.StateKey, &durable); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			durable = nil
		} else {
			slog.WarnContext(ctx, "Offline queue snapshot unreadable, keeping in-memory view",
				"key", q.config.StateKey, "error", err)
			return
		}
	}

	seen := make(map[string]struct{}, len(durable))
	for _, it := range durable {
		seen[it.ID] = struct{}{}
	}
	merged := durable
	for _, it := range q.items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		if _, pending := q.unpersisted[it.ID]; pending {
			merged = append(merged, it)
		}
	}
	q.items = merged
}

// persistLocked writes the snapshot. Persistence failures are logged and
// swallowed; the in-memory queue stays the source of truth for the session
// and the failed items are retried on the next write.
func (q *OfflineQueue) persistLocked(ctx context.Context) {
	items := q.items
	if items == nil {
		items = []Item{}
	}
	if err := q.store.PutJSON(ctx, q.config.StateKey, items); err != nil {
		slog.ErrorContext(ctx, "Failed to persist offline queue", "error", err)
		return
	}
	for _, it := range items {
		delete(q.unpersisted, it.ID)
	}
}
