package account

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go/keypair"

	"github.com/lumenpay/lumenpay/internal/ledger"
)

// Directory maps account identifiers to locally known records. Pure data
// access: it never talks to the network.
type Directory struct {
	repo Repository
}

// NewDirectory builds the account directory.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// StoreInput captures data required to store an account.
type StoreInput struct {
	Public      string
	Secret      string
	DisplayName string
}

// Store validates and persists an account record. The secret, when
// supplied, must control the given public key.
func (d *Directory) Store(ctx context.Context, input StoreInput) (Account, error) {
	if _, err := keypair.ParseAddress(input.Public); err != nil {
		return Account{}, fmt.Errorf("invalid public key: %w", err)
	}
	if input.Secret != "" {
		full, err := keypair.ParseFull(input.Secret)
		if err != nil {
			return Account{}, fmt.Errorf("invalid secret key: %w", err)
		}
		if full.Address() != input.Public {
			return Account{}, fmt.Errorf("secret key does not control %s", input.Public)
		}
	}

	account := Account{
		ID:          input.Public,
		DisplayName: input.DisplayName,
		KeyPair:     KeyPair{Public: input.Public, Secret: input.Secret},
		CreatedAt:   time.Now().UTC(),
	}
	if err := d.repo.Put(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Generate creates a fresh keypair and stores it.
func (d *Directory) Generate(ctx context.Context, displayName string) (Account, error) {
	full, err := keypair.Random()
	if err != nil {
		return Account{}, fmt.Errorf("generate keypair: %w", err)
	}
	return d.Store(ctx, StoreInput{Public: full.Address(), Secret: full.Seed(), DisplayName: displayName})
}

// Get retrieves a stored account.
func (d *Directory) Get(ctx context.Context, id string) (Account, error) {
	return d.repo.Get(ctx, id)
}

// Delete removes a stored account. Returns ErrNotFound for unknown ids.
func (d *Directory) Delete(ctx context.Context, id string) error {
	return d.repo.Delete(ctx, id)
}

// List returns every stored account.
func (d *Directory) List(ctx context.Context) ([]Account, error) {
	return d.repo.List(ctx)
}

// ReplaceBalances overwrites the cached balance snapshot for an account.
// Last write wins: there is no staleness check or merge.
func (d *Directory) ReplaceBalances(ctx context.Context, id string, balances []ledger.Balance) (Account, error) {
	account, err := d.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	account.Balances = balances
	if err := d.repo.Put(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}
