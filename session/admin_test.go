package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/finmar/clientshell/api"
	"github.com/finmar/clientshell/storage/memorystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminInitWithoutTokenSkipsNetwork(t *testing.T) {
	calls := int32(0)
	c := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	s := NewAdmin(c, memorystore.New())
	require.NoError(t, s.Init(context.Background()))

	// No cookie fallback for admins: no token means no request at all.
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	st := s.State()
	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated)
}

func TestAdminLoginAndRestart(t *testing.T) {
	c := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/login":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "AT",
				"admin":        map[string]string{"id": "9", "email": "root@finmar.com", "role": "superadmin"},
			})
		case "/api/admin/me":
			require.Equal(t, "Bearer AT", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]string{"id": "9", "email": "root@finmar.com", "role": "superadmin"})
		}
	}))

	store := memorystore.New()
	s := NewAdmin(c, store)
	admin, err := s.Login(context.Background(), "root@finmar.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "superadmin", admin.Role)

	restarted := NewAdmin(c, store)
	require.NoError(t, restarted.Init(context.Background()))
	st := restarted.State()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "root@finmar.com", st.Admin.Email)
}

func TestAdminVerifyFailureClearsCredential(t *testing.T) {
	c := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	store := memorystore.New()
	tokens := NewTokenStore(store, NamespaceAdmin)
	require.NoError(t, tokens.Set("stale"))

	s := NewAdmin(c, store)
	require.NoError(t, s.Init(context.Background()))

	assert.False(t, s.State().Authenticated)
	token, err := tokens.Get()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAdminLogoutIsLocal(t *testing.T) {
	calls := int32(0)
	c := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	store := memorystore.New()
	s := NewAdmin(c, store)
	s.token = "AT"
	s.admin = &api.Admin{ID: "9", Email: "root@finmar.com"}
	s.loading = false

	s.Logout()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "admin logout makes no server call")
	assert.False(t, s.State().Authenticated)
}

func TestNamespacesAreDisjoint(t *testing.T) {
	c := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "T",
				"user":         map[string]string{"id": "1", "email": "a@b.com"},
			})
		case "/api/admin/login":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "AT",
				"admin":        map[string]string{"id": "9", "email": "root@finmar.com"},
			})
		}
	}))

	store := memorystore.New()
	customer := New(c, store)
	admin := NewAdmin(c, store)

	_, err := customer.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	_, err = admin.Login(context.Background(), "root@finmar.com", "pw")
	require.NoError(t, err)

	// Signing the customer out must not disturb the admin credential.
	customer.Logout(context.Background())
	assert.False(t, customer.State().Authenticated)
	assert.True(t, admin.State().Authenticated)

	token, err := NewTokenStore(store, NamespaceAdmin).Get()
	require.NoError(t, err)
	assert.Equal(t, "AT", token)
}
