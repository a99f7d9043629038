package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenpay/lumenpay/internal/ledger"
)

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Put upserts an account record.
func (r *PostgresRepository) Put(ctx context.Context, account Account) error {
	balances, err := json.Marshal(account.Balances)
	if err != nil {
		return fmt.Errorf("encode balances: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, display_name, secret_key, balances, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET display_name = $2, secret_key = $3, balances = $4`,
		account.ID, account.DisplayName, account.KeyPair.Secret, balances, account.CreatedAt.UTC())
	return err
}

// Get fetches an account by public key.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, display_name, secret_key, balances, created_at
        FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// Delete removes an account record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored account ordered by public key.
func (r *PostgresRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, display_name, secret_key, balances, created_at
        FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var secret string
	var balances []byte
	var createdAt time.Time
	if err := row.Scan(&a.ID, &a.DisplayName, &secret, &balances, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.KeyPair = KeyPair{Public: a.ID, Secret: secret}
	a.CreatedAt = createdAt.UTC()
	if len(balances) > 0 {
		var parsed []ledger.Balance
		if err := json.Unmarshal(balances, &parsed); err != nil {
			return Account{}, fmt.Errorf("decode balances: %w", err)
		}
		a.Balances = parsed
	}
	return a, nil
}
