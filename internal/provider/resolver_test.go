package provider

import (
	"context"
	"errors"
	"testing"
)

// stubAccountClient records calls and returns scripted results.
type stubAccountClient struct {
	accountID     string
	accountIDErr  error
	account       *Account
	accountErr    error
	idCalls       int
	infoCalls     int
	lastAccountID string
}

func (s *stubAccountClient) AccountID(_ context.Context, _ string) (string, error) {
	s.idCalls++
	return s.accountID, s.accountIDErr
}

func (s *stubAccountClient) AccountInfo(_ context.Context, _, accountID string) (*Account, error) {
	s.infoCalls++
	s.lastAccountID = accountID
	return s.account, s.accountErr
}

func TestResolve(t *testing.T) {
	stub := &stubAccountClient{
		accountID: "acct-42",
		account: &Account{
			ID:       "acct-42",
			FullName: "Pat Example",
			Email:    "pat@example.com",
			Devices:  []DeviceDescriptor{{ID: "dev-1"}},
		},
	}
	resolver := NewResolver(stub)

	account, err := resolver.Resolve(context.Background(), "KEY1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if account.ID != "acct-42" {
		t.Errorf("account.ID = %q, want acct-42", account.ID)
	}
	if stub.lastAccountID != "acct-42" {
		t.Errorf("AccountInfo called with %q, want acct-42", stub.lastAccountID)
	}
}

func TestResolve_BadKey(t *testing.T) {
	stub := &stubAccountClient{accountIDErr: ErrInvalidCredential}
	resolver := NewResolver(stub)

	_, err := resolver.Resolve(context.Background(), "BADKEY")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("error = %v, want ErrInvalidCredential", err)
	}
	if stub.infoCalls != 0 {
		t.Errorf("AccountInfo called %d times after failed key lookup, want 0", stub.infoCalls)
	}
}

func TestResolve_InfoNotFoundMeansBadKey(t *testing.T) {
	// A 404 on the second step means the key no longer maps to an account;
	// callers must see a credential error, not a device error.
	stub := &stubAccountClient{
		accountID:  "acct-42",
		accountErr: ErrDeviceNotFound,
	}
	resolver := NewResolver(stub)

	_, err := resolver.Resolve(context.Background(), "KEY1")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("error = %v, want ErrInvalidCredential", err)
	}
}

func TestResolve_Unavailable(t *testing.T) {
	stub := &stubAccountClient{
		accountID:  "acct-42",
		accountErr: ErrUnavailable,
	}
	resolver := NewResolver(stub)

	_, err := resolver.Resolve(context.Background(), "KEY1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
