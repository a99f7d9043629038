package account

import (
	"time"

	"github.com/lumenpay/lumenpay/internal/ledger"
)

// KeyPair holds a Stellar keypair. Public is always present; Secret only
// when this wallet has signing authority over the account. Immutable once
// constructed.
type KeyPair struct {
	Public string `json:"public"`
	Secret string `json:"secret,omitempty"`
}

// CanSign reports whether the pair carries signing authority.
func (k KeyPair) CanSign() bool {
	return k.Secret != ""
}

// Account is a locally known ledger account: keys plus the last cached
// balance snapshot. The account ID is the public key.
type Account struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name,omitempty"`
	KeyPair     KeyPair          `json:"keypair"`
	Balances    []ledger.Balance `json:"balances,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
