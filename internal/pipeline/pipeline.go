package pipeline

import (
	"context"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/stellarnet"
)

// txTimeoutSeconds bounds how long a built envelope stays valid. A failed
// or delayed submission past this window must be rebuilt, never replayed.
const txTimeoutSeconds = 30

// Envelope is a built, possibly signed transaction ready for submission.
// Opaque to callers; signing appends signatures and never mutates the
// payload, so an Envelope can be handed to further co-signers.
type Envelope struct {
	tx *txnbuild.Transaction
}

// XDR returns the base64 wire form of the envelope.
func (e *Envelope) XDR() (string, error) {
	return e.tx.Base64()
}

// SignatureCount reports how many signatures the envelope carries.
func (e *Envelope) SignatureCount() int {
	return len(e.tx.Signatures())
}

// Tx exposes the underlying transaction for callers that need fee,
// timebounds or operation introspection (e.g. multi-signature review).
func (e *Envelope) Tx() *txnbuild.Transaction {
	return e.tx
}

// Pipeline turns an intent into a submitted transaction through three
// ordered stages: build, sign, submit. Each stage is independently
// invocable so a caller can sign with a key this process never sees; the
// pipeline never assumes it owns the only copy of a secret.
type Pipeline struct {
	gateway ledger.Gateway
	network stellarnet.Network
}

// New builds a pipeline against the given gateway and network.
func New(gateway ledger.Gateway, network stellarnet.Network) *Pipeline {
	return &Pipeline{gateway: gateway, network: network}
}

// Build fetches the source account's current sequence number and
// constructs an envelope with exactly one operation of the requested
// kind, the minimum base fee, and a fixed timeout window.
func (p *Pipeline) Build(ctx context.Context, kind Kind, sourceID string, intent Intent) (*Envelope, error) {
	op, memo, err := intent.operation(kind)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	snapshot, err := p.gateway.LoadAccount(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("build: load source %s: %w", sourceID, err)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: snapshot.ID, Sequence: snapshot.Sequence},
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              txnbuild.MinBaseFee,
		Memo:                 memo,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(txTimeoutSeconds)},
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	return &Envelope{tx: tx}, nil
}

// Sign appends a signature for the target network. Signatures accumulate
// across calls, which is how multi-signature flows compose.
func (p *Pipeline) Sign(envelope *Envelope, secret string) (*Envelope, error) {
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", ErrInvalidSecretKey)
	}

	tx, err := envelope.tx.Sign(p.network.Passphrase, kp)
	if err != nil {
		return nil, fmt.Errorf("sign: %w: %v", ErrInvalidSecretKey, err)
	}
	return &Envelope{tx: tx}, nil
}

// Submit forwards the envelope to the ledger. Failures surface to the
// caller with no local retry; a sequence conflict means rebuild and
// resubmit, which only the caller can decide to do.
func (p *Pipeline) Submit(ctx context.Context, envelope *Envelope) (ledger.SubmissionResult, error) {
	xdr, err := envelope.XDR()
	if err != nil {
		return ledger.SubmissionResult{}, fmt.Errorf("submit: encode envelope: %w", err)
	}

	result, err := p.gateway.Submit(ctx, xdr)
	if err != nil {
		return ledger.SubmissionResult{}, fmt.Errorf("submit: %w", err)
	}
	return result, nil
}

// Execute composes build, sign and submit for the single-signer case. If
// build or sign fails, submit is never attempted.
func (p *Pipeline) Execute(ctx context.Context, kind Kind, sourceID, secret string, intent Intent) (ledger.SubmissionResult, error) {
	envelope, err := p.Build(ctx, kind, sourceID, intent)
	if err != nil {
		return ledger.SubmissionResult{}, err
	}

	signed, err := p.Sign(envelope, secret)
	if err != nil {
		return ledger.SubmissionResult{}, err
	}

	return p.Submit(ctx, signed)
}
