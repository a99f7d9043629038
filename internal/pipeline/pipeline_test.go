package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/stellarnet"
)

func newTestPipeline(t *testing.T) (*Pipeline, *ledger.InMemoryGateway, *keypair.Full, *keypair.Full) {
	t.Helper()
	gateway := ledger.NewInMemory()
	source := keypair.MustRandom()
	dest := keypair.MustRandom()
	gateway.SeedAccount(ledger.AccountSnapshot{ID: source.Address(), Sequence: 5})
	return New(gateway, stellarnet.Testnet()), gateway, source, dest
}

func TestBuildPayment(t *testing.T) {
	p, _, source, dest := newTestPipeline(t)
	ctx := context.Background()

	env, err := p.Build(ctx, KindPayment, source.Address(), Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	tx := env.Tx()
	ops := tx.Operations()
	if len(ops) != 1 {
		t.Fatalf("expected exactly one operation, got %d", len(ops))
	}
	payment, ok := ops[0].(*txnbuild.Payment)
	if !ok {
		t.Fatalf("expected payment operation, got %T", ops[0])
	}
	if payment.Destination != dest.Address() || payment.Amount != "10" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if _, ok := payment.Asset.(txnbuild.NativeAsset); !ok {
		t.Fatalf("expected native asset, got %T", payment.Asset)
	}

	if tx.BaseFee() != 100 {
		t.Fatalf("expected base fee 100, got %d", tx.BaseFee())
	}
	if tx.SequenceNumber() != 6 {
		t.Fatalf("expected incremented sequence 6, got %d", tx.SequenceNumber())
	}

	window := tx.Timebounds().MaxTime - time.Now().Unix()
	if window < 25 || window > 35 {
		t.Fatalf("expected ~30s timeout window, got %ds", window)
	}
	if env.SignatureCount() != 0 {
		t.Fatalf("built envelope must be unsigned, has %d signatures", env.SignatureCount())
	}
}

func TestBuildAttachesMemo(t *testing.T) {
	p, _, source, dest := newTestPipeline(t)

	env, err := p.Build(context.Background(), KindPayment, source.Address(), Intent{
		Destination: dest.Address(),
		Amount:      "1",
		Memo:        "rent",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	memo, ok := env.Tx().Memo().(txnbuild.MemoText)
	if !ok || string(memo) != "rent" {
		t.Fatalf("unexpected memo: %#v", env.Tx().Memo())
	}
}

func TestBuildRejectsMalformedIntent(t *testing.T) {
	p, gateway, source, dest := newTestPipeline(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		kind   Kind
		intent Intent
	}{
		{"bad amount", KindPayment, Intent{Destination: dest.Address(), Amount: "ten"}},
		{"negative amount", KindPayment, Intent{Destination: dest.Address(), Amount: "-1"}},
		{"bad destination", KindPayment, Intent{Destination: "nope", Amount: "1"}},
		{"oversized memo", KindPayment, Intent{Destination: dest.Address(), Amount: "1", Memo: "this memo is far too long to fit"}},
		{"native trustline", KindChangeTrust, Intent{}},
		{"bad limit", KindChangeTrust, Intent{Asset: Asset{Code: "USDC", Issuer: dest.Address()}, Limit: "lots"}},
		{"bad starting balance", KindCreateAccount, Intent{Destination: dest.Address(), Amount: "0"}},
		{"unknown kind", Kind("merge"), Intent{}},
	}

	for _, tc := range cases {
		if _, err := p.Build(ctx, tc.kind, source.Address(), tc.intent); !errors.Is(err, ErrInvalidIntent) {
			t.Fatalf("%s: expected ErrInvalidIntent, got %v", tc.name, err)
		}
	}

	if n := len(gateway.Submissions()); n != 0 {
		t.Fatalf("invalid intents must not reach the gateway, got %d submissions", n)
	}
}

func TestBuildUnknownSource(t *testing.T) {
	p, _, _, dest := newTestPipeline(t)

	_, err := p.Build(context.Background(), KindPayment, keypair.MustRandom().Address(), Intent{
		Destination: dest.Address(),
		Amount:      "1",
	})
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestBuildChangeTrust(t *testing.T) {
	p, _, source, _ := newTestPipeline(t)
	issuer := keypair.MustRandom()

	env, err := p.Build(context.Background(), KindChangeTrust, source.Address(), Intent{
		Asset: Asset{Code: "USDC", Issuer: issuer.Address()},
		Limit: "5000",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	trust, ok := env.Tx().Operations()[0].(*txnbuild.ChangeTrust)
	if !ok {
		t.Fatalf("expected change trust operation, got %T", env.Tx().Operations()[0])
	}
	if trust.Limit != "5000" {
		t.Fatalf("unexpected limit: %q", trust.Limit)
	}
}

func TestSignAccumulatesSignatures(t *testing.T) {
	p, _, source, dest := newTestPipeline(t)
	cosigner := keypair.MustRandom()

	env, err := p.Build(context.Background(), KindPayment, source.Address(), Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	signed, err := p.Sign(env, source.Seed())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.SignatureCount() != 1 {
		t.Fatalf("expected one signature, got %d", signed.SignatureCount())
	}

	cosigned, err := p.Sign(signed, cosigner.Seed())
	if err != nil {
		t.Fatalf("co-sign: %v", err)
	}
	if cosigned.SignatureCount() != 2 {
		t.Fatalf("expected accumulated signatures, got %d", cosigned.SignatureCount())
	}
}

func TestSignInvalidSecret(t *testing.T) {
	p, _, source, dest := newTestPipeline(t)

	env, err := p.Build(context.Background(), KindPayment, source.Address(), Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := p.Sign(env, "SNOTASEED"); !errors.Is(err, ErrInvalidSecretKey) {
		t.Fatalf("expected ErrInvalidSecretKey, got %v", err)
	}
}

func TestExecuteHappyPath(t *testing.T) {
	p, gateway, source, dest := newTestPipeline(t)

	result, err := p.Execute(context.Background(), KindPayment, source.Address(), source.Seed(), Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Successful {
		t.Fatalf("expected success, got %+v", result)
	}
	if n := len(gateway.Submissions()); n != 1 {
		t.Fatalf("expected one submission, got %d", n)
	}
}

func TestExecuteNeverSubmitsAfterBuildFailure(t *testing.T) {
	p, gateway, source, _ := newTestPipeline(t)

	_, err := p.Execute(context.Background(), KindPayment, source.Address(), source.Seed(), Intent{
		Destination: "bad",
		Amount:      "10",
	})
	if !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
	if n := len(gateway.Submissions()); n != 0 {
		t.Fatalf("submit must not run after build failure, got %d submissions", n)
	}
}

func TestExecuteNeverSubmitsAfterSignFailure(t *testing.T) {
	p, gateway, source, dest := newTestPipeline(t)

	_, err := p.Execute(context.Background(), KindPayment, source.Address(), "SNOTASEED", Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})
	if !errors.Is(err, ErrInvalidSecretKey) {
		t.Fatalf("expected ErrInvalidSecretKey, got %v", err)
	}
	if n := len(gateway.Submissions()); n != 0 {
		t.Fatalf("submit must not run after sign failure, got %d submissions", n)
	}
}

func TestExecuteSurfacesRejection(t *testing.T) {
	p, gateway, source, dest := newTestPipeline(t)
	gateway.FailSubmitWith(&ledger.RejectionError{TransactionCode: "tx_bad_seq"})

	_, err := p.Execute(context.Background(), KindPayment, source.Address(), source.Seed(), Intent{
		Destination: dest.Address(),
		Amount:      "10",
	})

	var rejection *ledger.RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if rejection.TransactionCode != "tx_bad_seq" {
		t.Fatalf("result codes not preserved: %+v", rejection)
	}
}
