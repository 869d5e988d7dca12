// internal/testutil/fakes.go
package testutil

import (
	"context"
	"sync"

	"github.com/msalazarj/primebug/internal/app/provider/authp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FakeAuthProvider is an in-memory authp.Provider for handler tests.
// Accounts are keyed by email; passwords are compared in plain text.
type FakeAuthProvider struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount
	resets   []string // emails that requested a reset

	// Err, when set, is returned from every call.
	Err error
}

type fakeAccount struct {
	identity authp.Identity
	password string
}

func NewFakeAuthProvider() *FakeAuthProvider {
	return &FakeAuthProvider{accounts: map[string]fakeAccount{}}
}

// AddAccount registers an account and returns its identity.
func (f *FakeAuthProvider) AddAccount(email, password, displayName string) authp.Identity {
	id := authp.Identity{UID: primitive.NewObjectID(), DisplayName: displayName, Email: email}
	f.mu.Lock()
	f.accounts[email] = fakeAccount{identity: id, password: password}
	f.mu.Unlock()
	return id
}

// ResetRequests returns the emails passed to SendPasswordReset.
func (f *FakeAuthProvider) ResetRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.resets))
	copy(out, f.resets)
	return out
}

func (f *FakeAuthProvider) SignUp(_ context.Context, email, password, displayName string) (authp.Identity, error) {
	if f.Err != nil {
		return authp.Identity{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[email]; exists {
		return authp.Identity{}, &authp.Error{Code: authp.CodeEmailInUse, Op: "signup"}
	}
	if len(password) < 8 {
		return authp.Identity{}, &authp.Error{Code: authp.CodeWeakPassword, Op: "signup"}
	}
	id := authp.Identity{UID: primitive.NewObjectID(), DisplayName: displayName, Email: email}
	f.accounts[email] = fakeAccount{identity: id, password: password}
	return id, nil
}

func (f *FakeAuthProvider) SignIn(_ context.Context, email, password string) (authp.Identity, error) {
	if f.Err != nil {
		return authp.Identity{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return authp.Identity{}, &authp.Error{Code: authp.CodeInvalidCredentials, Op: "signin"}
	}
	return acct.identity, nil
}

func (f *FakeAuthProvider) SendPasswordReset(_ context.Context, email string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	if _, ok := f.accounts[email]; !ok {
		return &authp.Error{Code: authp.CodeUserNotFound, Op: "send-reset"}
	}
	return nil
}

func (f *FakeAuthProvider) ResetPassword(_ context.Context, token, newPassword string) error {
	if f.Err != nil {
		return f.Err
	}
	if token == "expired" {
		return &authp.Error{Code: authp.CodeExpiredToken, Op: "reset"}
	}
	if len(newPassword) < 8 {
		return &authp.Error{Code: authp.CodeWeakPassword, Op: "reset"}
	}
	return nil
}

func (f *FakeAuthProvider) UpdatePassword(_ context.Context, uid primitive.ObjectID, currentPassword, newPassword string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, acct := range f.accounts {
		if acct.identity.UID != uid {
			continue
		}
		if acct.password != currentPassword {
			return &authp.Error{Code: authp.CodeRequiresRecentAuth, Op: "update-password"}
		}
		if len(newPassword) < 8 {
			return &authp.Error{Code: authp.CodeWeakPassword, Op: "update-password"}
		}
		acct.password = newPassword
		f.accounts[email] = acct
		return nil
	}
	return &authp.Error{Code: authp.CodeUserNotFound, Op: "update-password"}
}
