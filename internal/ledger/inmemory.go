package ledger

import (
	"context"
	"sync"
)

// InMemoryGateway is a scriptable gateway for unit tests: seeded accounts,
// recorded submissions, manual event emission, and counters for stream
// opens and cancellations.
type InMemoryGateway struct {
	mu          sync.Mutex
	accounts    map[string]AccountSnapshot
	payments    map[string][]Payment
	submissions []string
	submitErr   error
	cancelErr   error
	nextStream  int
	streams     map[int]*fakeStream
}

type fakeStream struct {
	account    string
	cancelled  bool
	txHandler  TransactionHandler
	payHandler PaymentHandler
}

// NewInMemory creates an empty in-memory gateway.
func NewInMemory() *InMemoryGateway {
	return &InMemoryGateway{
		accounts: make(map[string]AccountSnapshot),
		payments: make(map[string][]Payment),
		streams:  make(map[int]*fakeStream),
	}
}

func (g *InMemoryGateway) LoadAccount(_ context.Context, id string) (AccountSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	snapshot, ok := g.accounts[id]
	if !ok {
		return AccountSnapshot{}, ErrAccountNotFound
	}
	return snapshot, nil
}

func (g *InMemoryGateway) Submit(_ context.Context, envelopeXDR string) (SubmissionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submissions = append(g.submissions, envelopeXDR)
	if g.submitErr != nil {
		return SubmissionResult{}, g.submitErr
	}
	return SubmissionResult{Hash: "fake-hash", Ledger: 1, Successful: true}, nil
}

func (g *InMemoryGateway) Payments(_ context.Context, accountID string, limit int) ([]Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	history := g.payments[accountID]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	out := make([]Payment, len(history))
	copy(out, history)
	return out, nil
}

func (g *InMemoryGateway) StreamTransactions(_ context.Context, accountID string, handler TransactionHandler) (CancelFunc, error) {
	return g.openStream(&fakeStream{account: accountID, txHandler: handler}), nil
}

func (g *InMemoryGateway) StreamPayments(_ context.Context, accountID string, handler PaymentHandler) (CancelFunc, error) {
	return g.openStream(&fakeStream{account: accountID, payHandler: handler}), nil
}

func (g *InMemoryGateway) openStream(stream *fakeStream) CancelFunc {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextStream
	g.nextStream++
	g.streams[id] = stream
	cancelErr := g.cancelErr
	return func() error {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.streams[id].cancelled = true
		return cancelErr
	}
}
