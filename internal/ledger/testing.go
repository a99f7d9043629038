package ledger

// Test helpers for InMemoryGateway. Kept out of _test files so other
// packages can drive the fake from their own tests.

// SeedAccount installs or replaces an account snapshot.
func (g *InMemoryGateway) SeedAccount(snapshot AccountSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[snapshot.ID] = snapshot
}

// SeedPayments installs the payment history returned for an account,
// newest first.
func (g *InMemoryGateway) SeedPayments(accountID string, payments []Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[accountID] = payments
}

// FailSubmitWith makes every subsequent Submit return err. Pass nil to
// restore success.
func (g *InMemoryGateway) FailSubmitWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitErr = err
}

// FailCancelWith makes the cancel capability of streams opened after this
// call return err. The stream is still torn down.
func (g *InMemoryGateway) FailCancelWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelErr = err
}

// Submissions returns every envelope passed to Submit, in order.
func (g *InMemoryGateway) Submissions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.submissions))
	copy(out, g.submissions)
	return out
}

// StreamOpens counts every stream ever opened for the account.
func (g *InMemoryGateway) StreamOpens(accountID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.streams {
		if s.account == accountID {
			n++
		}
	}
	return n
}

// ActiveStreams counts streams whose cancel has not been invoked.
func (g *InMemoryGateway) ActiveStreams() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.streams {
		if !s.cancelled {
			n++
		}
	}
	return n
}

// EmitTransaction delivers a transaction to every live transaction stream
// watching the account.
func (g *InMemoryGateway) EmitTransaction(tx Transaction) {
	g.mu.Lock()
	handlers := make([]TransactionHandler, 0, 1)
	for _, s := range g.streams {
		if !s.cancelled && s.txHandler != nil && s.account == tx.Account {
			handlers = append(handlers, s.txHandler)
		}
	}
	g.mu.Unlock()
	for _, h := range handlers {
		h(tx)
	}
}

// EmitPayment delivers a payment to every live payment stream watching
// either side of the payment.
func (g *InMemoryGateway) EmitPayment(p Payment) {
	g.mu.Lock()
	handlers := make([]PaymentHandler, 0, 1)
	for _, s := range g.streams {
		if !s.cancelled && s.payHandler != nil && (s.account == p.To || s.account == p.From) {
			handlers = append(handlers, s.payHandler)
		}
	}
	g.mu.Unlock()
	for _, h := range handlers {
		h(p)
	}
}
