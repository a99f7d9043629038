package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stellar/go/keypair"

	"github.com/lumenpay/lumenpay/internal/account"
	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/logging"
	"github.com/lumenpay/lumenpay/internal/pipeline"
	"github.com/lumenpay/lumenpay/internal/stellarnet"
	"github.com/lumenpay/lumenpay/internal/subscription"
)

func newTestWallet(t *testing.T) (*Wallet, *ledger.InMemoryGateway) {
	t.Helper()
	gateway := ledger.NewInMemory()
	network := stellarnet.Testnet()
	directory := account.NewDirectory(account.NewMemoryRepository())
	registry := subscription.NewRegistry(gateway, logging.Discard())
	return New(network, directory, pipeline.New(gateway, network), registry, gateway), gateway
}

func seedFundedAccount(t *testing.T, w *Wallet, gateway *ledger.InMemoryGateway, sequence int64) account.Account {
	t.Helper()
	acct, err := w.GenerateAccount(context.Background(), "test")
	if err != nil {
		t.Fatalf("generate account: %v", err)
	}
	gateway.SeedAccount(ledger.AccountSnapshot{ID: acct.ID, Sequence: sequence, Balances: []ledger.Balance{
		{AssetType: "native", Amount: "100.0000000"},
	}})
	return acct
}

func TestSendPaymentPublishesSubmitted(t *testing.T) {
	w, gateway := newTestWallet(t)
	defer w.Close()
	ctx := context.Background()

	source := seedFundedAccount(t, w, gateway, 5)
	dest := keypair.MustRandom()

	var submitted []subscription.Event
	w.AddListener(subscription.EventTransactionSubmitted, func(e subscription.Event) {
		submitted = append(submitted, e)
	})

	result, err := w.SendPayment(ctx, source.ID, pipeline.Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("send payment: %v", err)
	}
	if !result.Successful {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(submitted) != 1 || submitted[0].Account != source.ID {
		t.Fatalf("expected one transaction_submitted event, got %+v", submitted)
	}
	if len(gateway.Submissions()) != 1 {
		t.Fatalf("expected one submission, got %d", len(gateway.Submissions()))
	}
}

func TestSendPaymentRejectionLeavesDirectoryUntouched(t *testing.T) {
	w, gateway := newTestWallet(t)
	defer w.Close()
	ctx := context.Background()

	source := seedFundedAccount(t, w, gateway, 5)
	dest := keypair.MustRandom()

	before, _ := w.Account(ctx, source.ID)

	var failed []subscription.Event
	w.AddListener(subscription.EventTransactionFailed, func(e subscription.Event) {
		failed = append(failed, e)
	})

	gateway.FailSubmitWith(&ledger.RejectionError{TransactionCode: "tx_bad_seq"})

	_, err := w.SendPayment(ctx, source.ID, pipeline.Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})

	var rejection *ledger.RejectionError
	if !errors.As(err, &rejection) || rejection.TransactionCode != "tx_bad_seq" {
		t.Fatalf("expected tx_bad_seq rejection, got %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected one transaction_failed event, got %d", len(failed))
	}

	after, _ := w.Account(ctx, source.ID)
	if len(after.Balances) != len(before.Balances) {
		t.Fatal("rejected submission mutated the directory")
	}
}

func TestSendPaymentRequiresSigningAuthority(t *testing.T) {
	w, gateway := newTestWallet(t)
	ctx := context.Background()

	kp := keypair.MustRandom()
	if _, err := w.StoreAccount(ctx, account.StoreInput{Public: kp.Address()}); err != nil {
		t.Fatalf("store watch-only: %v", err)
	}

	_, err := w.SendPayment(ctx, kp.Address(), pipeline.Intent{
		Destination: keypair.MustRandom().Address(),
		Amount:      "1",
	})
	if !errors.Is(err, pipeline.ErrInvalidSecretKey) {
		t.Fatalf("expected ErrInvalidSecretKey for watch-only account, got %v", err)
	}
	if len(gateway.Submissions()) != 0 {
		t.Fatal("watch-only account must never reach the gateway")
	}
}

func TestRefreshAccountOverwritesBalances(t *testing.T) {
	w, gateway := newTestWallet(t)
	ctx := context.Background()

	source := seedFundedAccount(t, w, gateway, 5)

	refreshed, err := w.RefreshAccount(ctx, source.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(refreshed.Balances) != 1 || refreshed.Balances[0].Amount != "100.0000000" {
		t.Fatalf("unexpected balances: %+v", refreshed.Balances)
	}

	gateway.SeedAccount(ledger.AccountSnapshot{ID: source.ID, Sequence: 6, Balances: []ledger.Balance{
		{AssetType: "native", Amount: "90.0000000"},
	}})

	refreshed, err = w.RefreshAccount(ctx, source.ID)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if refreshed.Balances[0].Amount != "90.0000000" {
		t.Fatalf("expected overwritten snapshot, got %+v", refreshed.Balances)
	}
}

func TestWatchAndClose(t *testing.T) {
	w, gateway := newTestWallet(t)

	source := seedFundedAccount(t, w, gateway, 1)

	accountSub, err := w.WatchAccount(source.ID)
	if err != nil {
		t.Fatalf("watch account: %v", err)
	}
	if _, err := w.WatchPayments(source.ID); err != nil {
		t.Fatalf("watch payments: %v", err)
	}
	if gateway.ActiveStreams() != 2 {
		t.Fatalf("expected two live streams, got %d", gateway.ActiveStreams())
	}

	if !w.Unwatch(accountSub) {
		t.Fatal("expected unwatch to find the subscription")
	}
	if w.Unwatch(accountSub) {
		t.Fatal("expected second unwatch to return false")
	}

	w.Close()
	if gateway.ActiveStreams() != 0 {
		t.Fatal("close left streams running")
	}
}
