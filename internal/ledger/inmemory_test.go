package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryGateway_LoadAccount(t *testing.T) {
	g := NewInMemory()
	ctx := context.Background()

	if _, err := g.LoadAccount(ctx, "GMISSING"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	g.SeedAccount(AccountSnapshot{ID: "GABC", Sequence: 5, Balances: []Balance{
		{AssetType: "native", Amount: "100.0000000"},
	}})

	snapshot, err := g.LoadAccount(ctx, "GABC")
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	if snapshot.Sequence != 5 {
		t.Fatalf("expected sequence 5, got %d", snapshot.Sequence)
	}
	if len(snapshot.Balances) != 1 || snapshot.Balances[0].Amount != "100.0000000" {
		t.Fatalf("unexpected balances: %+v", snapshot.Balances)
	}
}

func TestInMemoryGateway_SubmitRecordsAndFails(t *testing.T) {
	g := NewInMemory()
	ctx := context.Background()

	res, err := g.Submit(ctx, "envelope-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Successful {
		t.Fatalf("expected success, got %+v", res)
	}

	rejection := &RejectionError{TransactionCode: "tx_bad_seq"}
	g.FailSubmitWith(rejection)

	var rerr *RejectionError
	if _, err := g.Submit(ctx, "envelope-2"); !errors.As(err, &rerr) || rerr.TransactionCode != "tx_bad_seq" {
		t.Fatalf("expected tx_bad_seq rejection, got %v", err)
	}

	subs := g.Submissions()
	if len(subs) != 2 || subs[0] != "envelope-1" || subs[1] != "envelope-2" {
		t.Fatalf("unexpected submissions: %v", subs)
	}
}

func TestInMemoryGateway_StreamLifecycle(t *testing.T) {
	g := NewInMemory()
	ctx := context.Background()

	var seen []Payment
	cancel, err := g.StreamPayments(ctx, "GABC", func(p Payment) { seen = append(seen, p) })
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if g.StreamOpens("GABC") != 1 || g.ActiveStreams() != 1 {
		t.Fatalf("expected one active stream")
	}

	g.EmitPayment(Payment{From: "GOTHER", To: "GABC", Amount: "1.0000000"})
	if len(seen) != 1 {
		t.Fatalf("expected one delivered payment, got %d", len(seen))
	}

	if err := cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	g.EmitPayment(Payment{From: "GOTHER", To: "GABC", Amount: "2.0000000"})
	if len(seen) != 1 {
		t.Fatalf("event delivered after cancel")
	}
	if g.ActiveStreams() != 0 {
		t.Fatalf("stream still active after cancel")
	}
}

func TestRejectionErrorMessage(t *testing.T) {
	err := &RejectionError{TransactionCode: "tx_failed", OperationCodes: []string{"op_underfunded"}}
	want := "transaction rejected: tx_failed (op_underfunded)"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
