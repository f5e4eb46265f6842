// Package session owns the client-side authentication state: the persisted
// credential, the in-memory identity, and the verification lifecycle that
// reconciles the two against the backend on every launch.
//
// Customer and admin sessions are deliberately disjoint. They persist under
// separate namespaces, talk to separate endpoints, and never read each
// other's state, so both can be signed in at once in the same shell.
package session

import (
	"github.com/finmar/clientshell/errors"
	"github.com/finmar/clientshell/storage"
)

// Storage namespaces for the two credential slots.
const (
	NamespaceCustomer = "customer_token"
	NamespaceAdmin    = "admin_token"
)

type credentialSlot struct {
	Namespace string
	Token     string
}

func (c credentialSlot) PK() string {
	return c.Namespace
}

// Name keeps the on-disk table stable regardless of struct renames.
func (c credentialSlot) Name() string {
	return "credentials"
}

// TokenStore persists one opaque credential in durable storage. It performs no
// validation of the token's shape; deciding whether a token is still good is
// the verifier's job.
type TokenStore struct {
	store     storage.Store
	namespace string
}

// NewTokenStore returns a token store bound to one namespace.
func NewTokenStore(store storage.Store, namespace string) *TokenStore {
	return &TokenStore{store: store, namespace: namespace}
}

// Get returns the persisted credential, or the empty string if none is set.
func (t *TokenStore) Get() (string, error) {
	var slot credentialSlot
	err := t.store.Read(t.namespace, &slot)
	if errors.Code(err) == storage.ErrNotFound.Code() {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return slot.Token, nil
}

// Set writes the credential through to durable storage.
func (t *TokenStore) Set(token string) error {
	return t.store.Upsert(credentialSlot{Namespace: t.namespace, Token: token})
}

// Clear removes the credential. Clearing an empty slot is not an error.
func (t *TokenStore) Clear() error {
	err := t.store.Delete(credentialSlot{Namespace: t.namespace})
	if errors.Code(err) == storage.ErrNotFound.Code() {
		return nil
	}
	return err
}
