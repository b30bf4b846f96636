package provider

import (
	"context"
	"errors"
	"fmt"
)

// AccountClient is the subset of the provider API the Resolver needs.
type AccountClient interface {
	AccountID(ctx context.Context, apiKey string) (string, error)
	AccountInfo(ctx context.Context, apiKey, accountID string) (*Account, error)
}

// Resolver turns a provider API key into the Account that owns it,
// including the account's device and zone inventory.
//
// The provider requires two calls (key -> account ID, then account ID ->
// details); this is the sole place that knows about the two-step protocol.
// Callers see one Resolve call and one error vocabulary.
type Resolver struct {
	client AccountClient
}

// NewResolver creates an account resolver over the given client.
func NewResolver(client AccountClient) *Resolver {
	return &Resolver{client: client}
}

// Resolve fetches the account identity and device inventory for an API key.
//
// A rejection of either sub-call by the provider surfaces as
// ErrInvalidCredential; transient failures surface as ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, apiKey string) (*Account, error) {
	accountID, err := r.client.AccountID(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("resolving account id: %w", err)
	}

	account, err := r.client.AccountInfo(ctx, apiKey, accountID)
	if err != nil {
		// An unknown account ID straight after a successful key lookup
		// means the key itself is no longer valid.
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, fmt.Errorf("fetching account info: %w", ErrInvalidCredential)
		}
		return nil, fmt.Errorf("fetching account info: %w", err)
	}

	return account, nil
}
