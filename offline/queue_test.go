package offline

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finmar/clientshell/errors"
	"github.com/finmar/clientshell/storage/memorystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func payload(s string) json.RawMessage {
	return json.RawMessage(`{"op":"` + s + `"}`)
}

func enqueue3(t *testing.T, q *Queue) {
	t.Helper()
	for _, op := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(payload(op))
		require.NoError(t, err)
	}
}

func drained(t *testing.T, q *Queue) []string {
	t.Helper()
	actions, err := q.Actions()
	require.NoError(t, err)
	ops := make([]string, len(actions))
	for i, a := range actions {
		var body struct {
			Op string `json:"op"`
		}
		require.NoError(t, json.Unmarshal(a.Payload, &body))
		ops[i] = body.Op
	}
	return ops
}

func TestEnqueueOrder(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	assert.Equal(t, []string{"a", "b", "c"}, drained(t, q))

	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDrainProcessesInOrderAndEmpties(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	var ops []string
	done, err := q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		var body struct {
			Op string `json:"op"`
		}
		require.NoError(t, json.Unmarshal(a.Payload, &body))
		ops = append(ops, body.Op)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, done)
	assert.Equal(t, []string{"a", "b", "c"}, ops)

	n, err := q.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainHaltsOnFirstFailure(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	calls := 0
	done, err := q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		calls++
		if calls == 2 {
			return errors.NewC("backend rejected", codes.Unavailable)
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, calls, "processing must stop at the failure, not skip past it")

	// The failed action stays at the head; the one behind it is untouched.
	assert.Equal(t, []string{"b", "c"}, drained(t, q))
}

func TestDrainRetryAfterFailureResumesInOrder(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	// First pass: a succeeds, b fails, the drain halts with [b, c] left.
	failing := true
	process := func(ctx context.Context, a Action) error {
		var body struct {
			Op string `json:"op"`
		}
		require.NoError(t, json.Unmarshal(a.Payload, &body))
		if failing && body.Op == "b" {
			return errors.NewC("backend rejected", codes.Unavailable)
		}
		return nil
	}

	done, err := q.Drain(context.Background(), process)
	require.Error(t, err)
	assert.Equal(t, 1, done)
	require.Equal(t, []string{"b", "c"}, drained(t, q))

	// Next online transition: the retry picks up at b, runs in order, and
	// empties the queue.
	failing = false
	var ops []string
	done, err = q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		var body struct {
			Op string `json:"op"`
		}
		require.NoError(t, json.Unmarshal(a.Payload, &body))
		ops = append(ops, body.Op)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.Equal(t, []string{"b", "c"}, ops)

	n, err := q.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainSurvivesPanickingProcessor(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	_, err := q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, errors.Code(err))
	assert.Equal(t, []string{"a", "b", "c"}, drained(t, q))
}

func TestConcurrentDrainIsNoOp(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	entered := make(chan struct{})
	release := make(chan struct{})
	processed := int32(0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Drain(context.Background(), func(ctx context.Context, a Action) error {
			atomic.AddInt32(&processed, 1)
			if atomic.LoadInt32(&processed) == 1 {
				close(entered)
				<-release
			}
			return nil
		})
	}()

	<-entered
	// A second drain while the first is mid-flight must do nothing.
	done, err := q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		t.Error("second drain must not process anything")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, done)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
}

func TestQueueSurvivesRestart(t *testing.T) {
	store := memorystore.New()
	q := NewQueue(store)
	enqueue3(t, q)

	// A fresh queue over the same store continues the sequence.
	q2 := NewQueue(store)
	_, err := q2.Enqueue(payload("d"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, drained(t, q2))
}

func TestDrainEmptyQueue(t *testing.T) {
	q := NewQueue(memorystore.New())
	done, err := q.Drain(context.Background(), func(ctx context.Context, a Action) error {
		t.Error("nothing to process")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, done)
}

func TestDrainStopsOnCancelledContext(t *testing.T) {
	q := NewQueue(memorystore.New())
	enqueue3(t, q)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := q.Drain(ctx, func(ctx context.Context, a Action) error {
		cancel()
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, codes.Canceled, errors.Code(err))
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"b", "c"}, drained(t, q))
}

func TestEnqueueStampsMetadata(t *testing.T) {
	q := NewQueue(memorystore.New())
	before := time.Now().Add(-time.Second)

	a, err := q.Enqueue(payload("a"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.True(t, a.EnqueuedAt.After(before))
}
