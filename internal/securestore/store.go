package securestore

import (
	"context"
	"errors"
)

// ErrNotFound indicates no blob is stored under the requested key. Absence
// is a normal outcome for lookups and callers are expected to branch on it.
var ErrNotFound = errors.New("securestore: not found")

// Store is the contract the wallet expects from a secure key-value backend.
// Writes are last-write-wins; no transactional guarantees are assumed.
type Store interface {
	Put(ctx context.Context, service, key string, blob []byte) error
	Get(ctx context.Context, service, key string) ([]byte, error)
	Delete(ctx context.Context, service, key string) error
}
