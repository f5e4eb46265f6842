package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/finmar/clientshell/storage"
	"github.com/finmar/clientshell/storage/storagetests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteStore(t *testing.T) {
	storagetests.Run(t, func() storage.Store {
		return New(":memory:")
	})
}

type token struct {
	ID    string
	Value string
}

func (t token) PK() string {
	return t.ID
}

// Data written through one store handle must be visible to a second handle
// opened on the same file, since the shell reopens its store on every launch.
func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.db")

	s1 := New("file:" + path)
	require.NoError(t, s1.Create(token{ID: "customer", Value: "T"}))

	s2 := New("file:" + path)
	var got token
	require.NoError(t, s2.Read("customer", &got))
	assert.Equal(t, "T", got.Value)
}

func TestCustomTableName(t *testing.T) {
	s := New(":memory:", WithTableName("shell_store"))
	require.NoError(t, s.Create(token{ID: "a", Value: "1"}))

	ok, err := s.Exists("a", token{})
	require.NoError(t, err)
	assert.True(t, ok)
}
