package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/lumenpay/lumenpay/internal/securestore"
)

const (
	storeService = "accounts"
	indexKey     = "_index"
)

// secureRepository keeps account records in a SecureStore. When a sealing
// passphrase is configured the secret key is encrypted inside the stored
// record; the rest of the record stays readable so listing does not require
// the passphrase.
type secureRepository struct {
	store      securestore.Store
	passphrase []byte
}

// NewSecureRepository wraps a SecureStore as an account repository. A nil
// or empty passphrase stores secret keys as the backend holds them.
func NewSecureRepository(store securestore.Store, passphrase []byte) Repository {
	return &secureRepository{store: store, passphrase: passphrase}
}

type storedAccount struct {
	Account
	SealedSecret []byte `json:"sealed_secret,omitempty"`
}

func (r *secureRepository) Put(ctx context.Context, account Account) error {
	record := storedAccount{Account: account}
	if len(r.passphrase) > 0 && account.KeyPair.Secret != "" {
		sealed, err := securestore.Seal([]byte(account.KeyPair.Secret), r.passphrase)
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		record.SealedSecret = sealed
		record.KeyPair.Secret = ""
	}

	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := r.store.Put(ctx, storeService, account.ID, blob); err != nil {
		return err
	}
	return r.updateIndex(ctx, func(ids []string) []string {
		if slices.Contains(ids, account.ID) {
			return ids
		}
		return append(ids, account.ID)
	})
}

func (r *secureRepository) Get(ctx context.Context, id string) (Account, error) {
	blob, err := r.store.Get(ctx, storeService, id)
	if errors.Is(err, securestore.ErrNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}

	var record storedAccount
	if err := json.Unmarshal(blob, &record); err != nil {
		return Account{}, fmt.Errorf("decode account: %w", err)
	}
	if len(record.SealedSecret) > 0 && len(r.passphrase) > 0 {
		secret, err := securestore.Open(record.SealedSecret, r.passphrase)
		if err != nil {
			return Account{}, fmt.Errorf("unseal secret: %w", err)
		}
		record.KeyPair.Secret = string(secret)
	}
	return record.Account, nil
}

func (r *secureRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Get(ctx, storeService, id); errors.Is(err, securestore.ErrNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, storeService, id); err != nil {
		return err
	}
	return r.updateIndex(ctx, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(v string) bool { return v == id })
	})
}

func (r *secureRepository) List(ctx context.Context) ([]Account, error) {
	ids, err := r.index(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(ids))
	for _, id := range ids {
		account, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (r *secureRepository) index(ctx context.Context) ([]string, error) {
	blob, err := r.store.Get(ctx, storeService, indexKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(blob, &ids); err != nil {
		return nil, fmt.Errorf("decode account index: %w", err)
	}
	return ids, nil
}

func (r *secureRepository) updateIndex(ctx context.Context, mutate func([]string) []string) error {
	ids, err := r.index(ctx)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(mutate(ids))
	if err != nil {
		return fmt.Errorf("encode account index: %w", err)
	}
	return r.store.Put(ctx, storeService, indexKey, blob)
}
