package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenpay/lumenpay/internal/account"
	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/pipeline"
	"github.com/lumenpay/lumenpay/internal/stellarnet"
	"github.com/lumenpay/lumenpay/internal/subscription"
)

// Wallet composes the account directory, transaction pipeline and
// subscription registry into a single entry point. Pure composition: all
// behavior lives in the composed parts.
type Wallet struct {
	network   stellarnet.Network
	directory *account.Directory
	pipeline  *pipeline.Pipeline
	registry  *subscription.Registry
	gateway   ledger.Gateway
}

// New wires a wallet from its parts.
func New(network stellarnet.Network, directory *account.Directory, pipe *pipeline.Pipeline, registry *subscription.Registry, gateway ledger.Gateway) *Wallet {
	return &Wallet{
		network:   network,
		directory: directory,
		pipeline:  pipe,
		registry:  registry,
		gateway:   gateway,
	}
}

// Network returns the ledger network this wallet targets.
func (w *Wallet) Network() stellarnet.Network {
	return w.network
}

// StoreAccount persists an account record (keys validated by the
// directory).
func (w *Wallet) StoreAccount(ctx context.Context, input account.StoreInput) (account.Account, error) {
	return w.directory.Store(ctx, input)
}

// GenerateAccount creates and stores a fresh keypair.
func (w *Wallet) GenerateAccount(ctx context.Context, displayName string) (account.Account, error) {
	return w.directory.Generate(ctx, displayName)
}

// Account returns a locally stored account.
func (w *Wallet) Account(ctx context.Context, id string) (account.Account, error) {
	return w.directory.Get(ctx, id)
}

// Accounts lists every locally stored account.
func (w *Wallet) Accounts(ctx context.Context) ([]account.Account, error) {
	return w.directory.List(ctx)
}

// DeleteAccount removes a locally stored account.
func (w *Wallet) DeleteAccount(ctx context.Context, id string) error {
	return w.directory.Delete(ctx, id)
}

// RefreshAccount loads the account from the ledger and overwrites the
// cached balance snapshot wholesale. Last write wins.
func (w *Wallet) RefreshAccount(ctx context.Context, id string) (account.Account, error) {
	snapshot, err := w.gateway.LoadAccount(ctx, id)
	if err != nil {
		return account.Account{}, fmt.Errorf("refresh %s: %w", id, err)
	}
	return w.directory.ReplaceBalances(ctx, id, snapshot.Balances)
}

// Payments returns recent payment history for the account, newest first.
func (w *Wallet) Payments(ctx context.Context, id string, limit int) ([]ledger.Payment, error) {
	return w.gateway.Payments(ctx, id, limit)
}

// SendPayment builds, signs and submits a payment from a stored account.
func (w *Wallet) SendPayment(ctx context.Context, sourceID string, intent pipeline.Intent) (ledger.SubmissionResult, error) {
	return w.execute(ctx, pipeline.KindPayment, sourceID, intent)
}

// ChangeTrust builds, signs and submits a trustline change from a stored
// account.
func (w *Wallet) ChangeTrust(ctx context.Context, sourceID string, intent pipeline.Intent) (ledger.SubmissionResult, error) {
	return w.execute(ctx, pipeline.KindChangeTrust, sourceID, intent)
}

// CreateAccount funds a new ledger account from a stored account.
func (w *Wallet) CreateAccount(ctx context.Context, sourceID string, intent pipeline.Intent) (ledger.SubmissionResult, error) {
	return w.execute(ctx, pipeline.KindCreateAccount, sourceID, intent)
}

// execute resolves the source account's signing key, runs the pipeline,
// and publishes the submission outcome. Rejections publish
// transaction_failed; transport errors do not, since the ledger may still
// have accepted the transaction.
func (w *Wallet) execute(ctx context.Context, kind pipeline.Kind, sourceID string, intent pipeline.Intent) (ledger.SubmissionResult, error) {
	source, err := w.directory.Get(ctx, sourceID)
	if err != nil {
		return ledger.SubmissionResult{}, err
	}
	if !source.KeyPair.CanSign() {
		return ledger.SubmissionResult{}, fmt.Errorf("account %s: %w", sourceID, pipeline.ErrInvalidSecretKey)
	}

	result, err := w.pipeline.Execute(ctx, kind, sourceID, source.KeyPair.Secret, intent)
	if err != nil {
		var rejection *ledger.RejectionError
		if errors.As(err, &rejection) {
			w.registry.Publish(subscription.Event{
				Type:    subscription.EventTransactionFailed,
				Account: sourceID,
				Err:     rejection,
			})
		}
		return ledger.SubmissionResult{}, err
	}

	w.registry.Publish(subscription.Event{
		Type:        subscription.EventTransactionSubmitted,
		Account:     sourceID,
		Transaction: &result,
	})
	return result, nil
}

// WatchAccount subscribes to live account updates. Deterministic id,
// replace-on-resubscribe.
func (w *Wallet) WatchAccount(accountID string) (string, error) {
	return w.registry.SubscribeToAccount(accountID)
}

// WatchPayments subscribes to live payments touching the account.
func (w *Wallet) WatchPayments(accountID string) (string, error) {
	return w.registry.SubscribeToPayments(accountID)
}

// Unwatch tears down one subscription; false means it was not active.
func (w *Wallet) Unwatch(subscriptionID string) bool {
	return w.registry.Unsubscribe(subscriptionID)
}

// AddListener registers an event callback; the handle removes it again.
func (w *Wallet) AddListener(eventType subscription.EventType, listener subscription.Listener) int {
	return w.registry.AddListener(eventType, listener)
}

// RemoveListener drops a registered callback.
func (w *Wallet) RemoveListener(eventType subscription.EventType, handle int) {
	w.registry.RemoveListener(eventType, handle)
}

// Close tears down every live subscription. Never fails.
func (w *Wallet) Close() {
	w.registry.UnsubscribeAll()
}
