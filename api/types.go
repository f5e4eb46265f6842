package api

import (
	"github.com/finmar/clientshell/errors"
	"google.golang.org/grpc/codes"
)

// User is the resolved customer identity. Responses are treated as untrusted
// input: payloads are decoded into this concrete shape and validated at the
// client boundary rather than passed around as loose maps.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	BusinessName       string `json:"business_name,omitempty"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
	Picture            string `json:"picture,omitempty"`
}

// Validate checks the fields the shell cannot operate without.
func (u *User) Validate() error {
	if u.ID == "" || u.Email == "" {
		return errors.NewC("malformed user payload: id and email are required", codes.Internal)
	}
	return nil
}

// Admin is the resolved back-office identity.
type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Validate checks the fields the shell cannot operate without.
func (a *Admin) Validate() error {
	if a.ID == "" || a.Email == "" {
		return errors.NewC("malformed admin payload: id and email are required", codes.Internal)
	}
	return nil
}

// LoginResult is returned by password login and registration.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// AdminLoginResult is returned by admin password login.
type AdminLoginResult struct {
	AccessToken string `json:"access_token"`
	Admin       Admin  `json:"admin"`
}
