// Package offline keeps the app usable without connectivity: a durable FIFO
// queue for actions taken while offline, a TTL cache for the last good copy
// of remote data, and a network monitor that triggers a drain when
// connectivity returns.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/finmar/clientshell/errors"
	"github.com/finmar/clientshell/logging"
	"github.com/finmar/clientshell/storage"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
)

// Action is one queued unit of work. The payload is opaque to the queue; the
// processor supplied at drain time gives it meaning.
type Action struct {
	ID         string
	Payload    json.RawMessage
	EnqueuedAt time.Time
}

// pendingAction is the stored shape. The primary key embeds a zero-padded
// sequence number so lexicographic PK order is enqueue order, which is the
// order every store lists in.
type pendingAction struct {
	ID         string
	Seq        uint64
	Payload    json.RawMessage
	EnqueuedAt time.Time
}

func (p pendingAction) PK() string {
	return fmt.Sprintf("%020d", p.Seq)
}

func (p pendingAction) Name() string {
	return "pending_actions"
}

func (p pendingAction) action() Action {
	return Action{ID: p.ID, Payload: p.Payload, EnqueuedAt: p.EnqueuedAt}
}

// Queue is a durable strict-FIFO action queue. Enqueue completes the durable
// write before returning, so an action acknowledged to the caller survives a
// crash. Draining stops at the first failure and leaves the failed action at
// the head for the next attempt.
type Queue struct {
	store storage.Store
	log   logging.Logger

	mu       sync.Mutex
	loaded   bool
	nextSeq  uint64
	draining bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueLogger sets the logger. Defaults to a nop logger.
func WithQueueLogger(log logging.Logger) QueueOption {
	return func(q *Queue) {
		q.log = log
	}
}

// NewQueue returns a queue over store. Existing pending actions are picked up
// on first use.
func NewQueue(store storage.Store, opts ...QueueOption) *Queue {
	q := &Queue{store: store, log: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(q)
	}
	q.log = q.log.Named("offline.queue")
	return q
}

// ensureLoaded seeds the sequence counter from whatever survived a previous
// run. Callers hold q.mu.
func (q *Queue) ensureLoaded() error {
	if q.loaded {
		return nil
	}
	pending, err := q.list()
	if err != nil {
		return err
	}
	if n := len(pending); n > 0 {
		q.nextSeq = pending[n-1].Seq + 1
	}
	q.loaded = true
	return nil
}

// Enqueue appends payload to the queue. The action is durable by the time
// Enqueue returns.
func (q *Queue) Enqueue(payload json.RawMessage) (Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureLoaded(); err != nil {
		return Action{}, err
	}

	p := pendingAction{
		ID:         uuid.NewString(),
		Seq:        q.nextSeq,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := q.store.Create(p); err != nil {
		return Action{}, err
	}
	q.nextSeq++

	q.log.Debugw("queued offline action", "id", p.ID, "seq", p.Seq)
	return p.action(), nil
}

// Actions returns the pending actions in enqueue order.
func (q *Queue) Actions() ([]Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.list()
	if err != nil {
		return nil, err
	}
	actions := make([]Action, len(pending))
	for i, p := range pending {
		actions[i] = p.action()
	}
	return actions, nil
}

// Len returns the number of pending actions.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.list()
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// list returns pending actions in sequence order. Callers hold q.mu.
func (q *Queue) list() ([]pendingAction, error) {
	var pending []pendingAction
	if err := q.store.List(&pending, pendingAction{}); err != nil {
		return nil, err
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Seq < pending[j].Seq
	})
	return pending, nil
}

// Drain replays pending actions through process in strict FIFO order. Each
// action is removed from the queue as soon as it succeeds; the first failure
// stops the drain and leaves the failed action and everything after it
// untouched for the next attempt. A drain already in progress makes Drain a
// no-op, so an online-signal burst replays nothing twice.
//
// Drain returns the number of actions completed this pass.
func (q *Queue) Drain(ctx context.Context, process func(context.Context, Action) error) (int, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return 0, nil
	}
	q.draining = true
	pending, err := q.list()
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	q.log.Infow("draining offline queue", "pending", len(pending))

	done := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return done, errors.Wrap(err, 0).WithCode(codes.Canceled)
		}
		if err := q.runOne(ctx, process, p.action()); err != nil {
			q.log.Warnw("offline action failed, halting drain",
				"id", p.ID, "completed", done, "error", err)
			return done, err
		}
		if err := q.store.Delete(p); err != nil {
			return done, err
		}
		done++
	}

	q.log.Infow("offline queue drained", "completed", done)
	return done, nil
}

// runOne executes process with panic containment: a panicking processor fails
// its action instead of taking down the shell.
func (q *Queue) runOne(ctx context.Context, process func(context.Context, Action) error, a Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("action processor panicked: %v", r).WithCode(codes.Internal)
		}
	}()
	return process(ctx, a)
}
