package session

import (
	"testing"

	"github.com/finmar/clientshell/storage/memorystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := memorystore.New()
	ts := NewTokenStore(store, NamespaceCustomer)

	token, err := ts.Get()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ts.Set("T1"))
	require.NoError(t, ts.Set("T2")) // overwrite

	token, err = ts.Get()
	require.NoError(t, err)
	assert.Equal(t, "T2", token)

	require.NoError(t, ts.Clear())
	require.NoError(t, ts.Clear()) // idempotent

	token, err = ts.Get()
	require.NoError(t, err)
	assert.Empty(t, token)
}
