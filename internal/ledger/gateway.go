package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAccountNotFound occurs when the requested account does not exist on
	// the ledger (or has not been funded yet).
	ErrAccountNotFound = errors.New("account not found")
)

// RejectionError is returned when the ledger accepted the submission
// request but rejected the transaction with structured result codes
// (e.g. tx_bad_seq, tx_insufficient_balance).
type RejectionError struct {
	TransactionCode string
	OperationCodes  []string
}

func (e *RejectionError) Error() string {
	if len(e.OperationCodes) == 0 {
		return fmt.Sprintf("transaction rejected: %s", e.TransactionCode)
	}
	return fmt.Sprintf("transaction rejected: %s (%s)", e.TransactionCode, strings.Join(e.OperationCodes, ", "))
}

// TransportError wraps a network-level failure talking to the ledger
// service. It is distinct from RejectionError: the ledger never saw, or
// never answered for, the request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Balance is one entry of an account's balance sheet. Value type: refreshes
// replace the whole slice, entries are never partially mutated.
type Balance struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
	Amount      string `json:"amount"`
}

// AccountSnapshot is the ledger-side view of an account at load time.
type AccountSnapshot struct {
	ID       string
	Sequence int64
	Balances []Balance
}

// SubmissionResult captures the outcome of a successful submission.
type SubmissionResult struct {
	Hash       string
	Ledger     int32
	Successful bool
}

// Transaction is a ledger transaction touching a watched account.
type Transaction struct {
	ID         string
	Hash       string
	Account    string
	Ledger     int32
	Successful bool
	CreatedAt  time.Time
}

// Payment is a payment-like operation delivered on a payment stream or a
// history query. Account creation is reported as a payment of the starting
// balance, matching the ledger's payments endpoint.
type Payment struct {
	ID              string
	From            string
	To              string
	Amount          string
	AssetType       string
	AssetCode       string
	AssetIssuer     string
	TransactionHash string
	CreatedAt       time.Time
}

// TransactionHandler consumes streamed transactions.
type TransactionHandler func(Transaction)

// PaymentHandler consumes streamed payments.
type PaymentHandler func(Payment)

// CancelFunc tears down an open stream. It is the sole cancellation
// mechanism: after it returns, no further events are delivered.
type CancelFunc func() error

// Gateway is the single point of contact with the remote ledger service.
// Streams open at the "now" cursor: only future events, never historical
// replay.
type Gateway interface {
	LoadAccount(ctx context.Context, id string) (AccountSnapshot, error)
	Submit(ctx context.Context, envelopeXDR string) (SubmissionResult, error)
	Payments(ctx context.Context, accountID string, limit int) ([]Payment, error)
	StreamTransactions(ctx context.Context, accountID string, handler TransactionHandler) (CancelFunc, error)
	StreamPayments(ctx context.Context, accountID string, handler PaymentHandler) (CancelFunc, error)
}
