package account

import (
	"context"
	"errors"
)

// ErrNotFound indicates the account is not known locally.
var ErrNotFound = errors.New("account not known")

// Repository persists locally known accounts. Put is an upsert: balance
// refreshes overwrite the stored record wholesale, last write wins.
type Repository interface {
	Put(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Account, error)
}
