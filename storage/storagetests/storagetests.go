// Package storagetests provides common acceptance tests for storage.Store
// implementations. Both the in-memory and sqlite backends must pass them, so
// shell components behave identically regardless of which store the host
// selected.
package storagetests

import (
	"testing"

	"github.com/finmar/clientshell/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Plan int

const (
	PlanStarter Plan = 1
	PlanGrowth  Plan = 2
	PlanScale   Plan = 3
)

type Subscription struct {
	ID    string
	Email string
	Plan  Plan
	Seats *int // Ptr fields allow filtering on zero values.
}

func (s Subscription) PK() string {
	return s.ID
}

type Invoice struct {
	ID     string
	Number string
}

func (i Invoice) PK() string {
	return i.ID
}

type BadModel struct {
	ID    string
	Cycle chan int // Channels cannot be marshaled to JSON.
}

func (b BadModel) PK() string {
	return b.ID
}

func pint(i int) *int {
	return &i
}

// Run executes the acceptance suite against a fresh store per subtest.
func Run(t *testing.T, newStore func() storage.Store) {

	t.Run("TestCreateReadRoundTrip", func(t *testing.T) {
		s := newStore()
		sub := Subscription{ID: "s1", Email: "a@b.com", Plan: PlanStarter, Seats: pint(3)}
		require.NoError(t, s.Create(sub))

		var got Subscription
		require.NoError(t, s.Read("s1", &got))
		assert.Equal(t, sub, got)
	})

	t.Run("TestCreateDuplicateFails", func(t *testing.T) {
		s := newStore()
		sub := Subscription{ID: "s1", Email: "a@b.com"}
		require.NoError(t, s.Create(sub))
		assert.ErrorIs(t, s.Create(sub), storage.ErrAlreadyExists)
	})

	t.Run("TestReadMissing", func(t *testing.T) {
		s := newStore()
		var got Subscription
		assert.ErrorIs(t, s.Read("nope", &got), storage.ErrNotFound)
	})

	t.Run("TestReadNilReceiver", func(t *testing.T) {
		s := newStore()
		var got *Subscription
		assert.Error(t, s.Read("nope", got))
	})

	t.Run("TestUpdate", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(Subscription{ID: "s1", Email: "a@b.com", Plan: PlanStarter}))
		require.NoError(t, s.Update(Subscription{ID: "s1", Email: "a@b.com", Plan: PlanGrowth}))

		var got Subscription
		require.NoError(t, s.Read("s1", &got))
		assert.Equal(t, PlanGrowth, got.Plan)
	})

	t.Run("TestUpdateMissing", func(t *testing.T) {
		s := newStore()
		assert.ErrorIs(t, s.Update(Subscription{ID: "ghost"}), storage.ErrNotFound)
	})

	t.Run("TestUpsertInsertsThenUpdates", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Upsert(Subscription{ID: "s1", Plan: PlanStarter}))
		require.NoError(t, s.Upsert(Subscription{ID: "s1", Plan: PlanScale}))

		var got Subscription
		require.NoError(t, s.Read("s1", &got))
		assert.Equal(t, PlanScale, got.Plan)
	})

	t.Run("TestDelete", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(Subscription{ID: "s1"}))
		require.NoError(t, s.Delete(Subscription{ID: "s1"}))

		var got Subscription
		assert.ErrorIs(t, s.Read("s1", &got), storage.ErrNotFound)
	})

	t.Run("TestDeleteMissing", func(t *testing.T) {
		s := newStore()
		assert.ErrorIs(t, s.Delete(Subscription{ID: "ghost"}), storage.ErrNotFound)
	})

	t.Run("TestListAll", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(
			Subscription{ID: "s1", Email: "a@b.com", Plan: PlanStarter},
			Subscription{ID: "s2", Email: "b@b.com", Plan: PlanGrowth},
			Subscription{ID: "s3", Email: "c@b.com", Plan: PlanGrowth},
		))

		var subs []Subscription
		require.NoError(t, s.List(&subs, Subscription{}))
		assert.Len(t, subs, 3)
	})

	t.Run("TestListFiltered", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(
			Subscription{ID: "s1", Email: "a@b.com", Plan: PlanStarter},
			Subscription{ID: "s2", Email: "b@b.com", Plan: PlanGrowth},
			Subscription{ID: "s3", Email: "c@b.com", Plan: PlanGrowth},
		))

		var subs []Subscription
		require.NoError(t, s.List(&subs, Subscription{Plan: PlanGrowth}))
		assert.Len(t, subs, 2)
	})

	t.Run("TestListZeroValueViaPointer", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(
			Subscription{ID: "s1", Seats: pint(0)},
			Subscription{ID: "s2", Seats: pint(5)},
		))

		var subs []Subscription
		require.NoError(t, s.List(&subs, Subscription{Seats: pint(0)}))
		require.Len(t, subs, 1)
		assert.Equal(t, "s1", subs[0].ID)
	})

	t.Run("TestListIsolatesModels", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(Subscription{ID: "x1"}))
		require.NoError(t, s.Create(Invoice{ID: "x1", Number: "INV-1"}))

		var invoices []Invoice
		require.NoError(t, s.List(&invoices, Invoice{}))
		assert.Len(t, invoices, 1)
	})

	t.Run("TestListRequiresSlice", func(t *testing.T) {
		s := newStore()
		var notSlice Subscription
		assert.ErrorIs(t, s.List(&notSlice, Subscription{}), storage.ErrSliceRequired)
	})

	t.Run("TestListTypeMismatch", func(t *testing.T) {
		s := newStore()
		var invoices []Invoice
		assert.ErrorIs(t, s.List(&invoices, Subscription{}), storage.ErrTypeMismatch)
	})

	t.Run("TestExists", func(t *testing.T) {
		s := newStore()
		require.NoError(t, s.Create(Subscription{ID: "s1"}))

		ok, err := s.Exists("s1", Subscription{})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Exists("s2", Subscription{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("TestUnmarshalableModel", func(t *testing.T) {
		s := newStore()
		assert.Error(t, s.Create(BadModel{ID: "b1", Cycle: make(chan int)}))
	})
}
