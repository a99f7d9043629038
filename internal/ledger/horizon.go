package ledger

import (
	"context"
	"net/http"
	"sync"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/operations"
)

const cursorNow = "now"

// HorizonGateway talks to a Horizon instance. It is safe for concurrent
// use; each open stream runs on its own goroutine and is cancelled through
// the returned CancelFunc.
type HorizonGateway struct {
	client horizonclient.ClientInterface
}

// NewHorizonGateway builds a gateway against the given Horizon URL.
func NewHorizonGateway(horizonURL string) *HorizonGateway {
	return &HorizonGateway{client: &horizonclient.Client{
		HorizonURL: horizonURL,
		HTTP:       http.DefaultClient,
	}}
}

// LoadAccount fetches the current account state: sequence number and the
// full balance sheet.
func (g *HorizonGateway) LoadAccount(ctx context.Context, id string) (AccountSnapshot, error) {
	acct, err := g.client.AccountDetail(horizonclient.AccountRequest{AccountID: id})
	if err != nil {
		return AccountSnapshot{}, mapAccountError("load account", err)
	}

	seq, err := acct.GetSequenceNumber()
	if err != nil {
		return AccountSnapshot{}, &TransportError{Op: "parse sequence", Err: err}
	}

	snapshot := AccountSnapshot{ID: acct.AccountID, Sequence: seq}
	for _, b := range acct.Balances {
		snapshot.Balances = append(snapshot.Balances, Balance{
			AssetType:   b.Asset.Type,
			AssetCode:   b.Asset.Code,
			AssetIssuer: b.Asset.Issuer,
			Amount:      b.Balance,
		})
	}
	return snapshot, nil
}

// Submit forwards a base64 envelope to Horizon. Structured rejections come
// back as *RejectionError, anything network-level as *TransportError.
func (g *HorizonGateway) Submit(_ context.Context, envelopeXDR string) (SubmissionResult, error) {
	resp, err := g.client.SubmitTransactionXDR(envelopeXDR)
	if err != nil {
		return SubmissionResult{}, mapSubmitError(err)
	}
	return SubmissionResult{Hash: resp.Hash, Ledger: resp.Ledger, Successful: resp.Successful}, nil
}

// Payments returns the most recent payment operations for the account,
// newest first.
func (g *HorizonGateway) Payments(_ context.Context, accountID string, limit int) ([]Payment, error) {
	page, err := g.client.Payments(horizonclient.OperationRequest{
		ForAccount: accountID,
		Order:      horizonclient.OrderDesc,
		Limit:      uint(limit),
	})
	if err != nil {
		return nil, mapAccountError("payments", err)
	}

	payments := make([]Payment, 0, len(page.Embedded.Records))
	for _, record := range page.Embedded.Records {
		if p, ok := toPayment(record); ok {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

// StreamTransactions opens a transaction stream for the account at the
// "now" cursor. The handler stops being invoked once the returned cancel
// runs; late transport messages are dropped here, not by the caller.
func (g *HorizonGateway) StreamTransactions(ctx context.Context, accountID string, handler TransactionHandler) (CancelFunc, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = g.client.StreamTransactions(streamCtx, horizonclient.TransactionRequest{
			ForAccount: accountID,
			Cursor:     cursorNow,
		}, func(tx hProtocol.Transaction) {
			if streamCtx.Err() != nil {
				return
			}
			handler(Transaction{
				ID:         tx.ID,
				Hash:       tx.Hash,
				Account:    tx.Account,
				Ledger:     tx.Ledger,
				Successful: tx.Successful,
				CreatedAt:  tx.LedgerCloseTime,
			})
		})
	}()

	return makeCancel(cancel, done), nil
}

// StreamPayments opens a payment stream for the account at the "now"
// cursor.
func (g *HorizonGateway) StreamPayments(ctx context.Context, accountID string, handler PaymentHandler) (CancelFunc, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = g.client.StreamPayments(streamCtx, horizonclient.OperationRequest{
			ForAccount: accountID,
			Cursor:     cursorNow,
		}, func(op operations.Operation) {
			if streamCtx.Err() != nil {
				return
			}
			if p, ok := toPayment(op); ok {
				handler(p)
			}
		})
	}()

	return makeCancel(cancel, done), nil
}

// makeCancel wraps context cancellation into an idempotent CancelFunc that
// waits for the stream goroutine to drain.
func makeCancel(cancel context.CancelFunc, done chan struct{}) CancelFunc {
	var once sync.Once
	return func() error {
		once.Do(cancel)
		<-done
		return nil
	}
}

func toPayment(op operations.Operation) (Payment, bool) {
	switch p := op.(type) {
	case operations.Payment:
		return Payment{
			ID:              p.ID,
			From:            p.From,
			To:              p.To,
			Amount:          p.Amount,
			AssetType:       p.Asset.Type,
			AssetCode:       p.Asset.Code,
			AssetIssuer:     p.Asset.Issuer,
			TransactionHash: p.TransactionHash,
			CreatedAt:       p.LedgerCloseTime,
		}, true
	case operations.CreateAccount:
		return Payment{
			ID:              p.ID,
			From:            p.Funder,
			To:              p.Account,
			Amount:          p.StartingBalance,
			AssetType:       "native",
			TransactionHash: p.TransactionHash,
			CreatedAt:       p.LedgerCloseTime,
		}, true
	default:
		return Payment{}, false
	}
}

func mapAccountError(op string, err error) error {
	if herr := horizonclient.GetError(err); herr != nil {
		if herr.Problem.Status == http.StatusNotFound {
			return ErrAccountNotFound
		}
	}
	return &TransportError{Op: op, Err: err}
}

func mapSubmitError(err error) error {
	if herr := horizonclient.GetError(err); herr != nil {
		if codes, codesErr := herr.ResultCodes(); codesErr == nil && codes != nil {
			return &RejectionError{
				TransactionCode: codes.TransactionCode,
				OperationCodes:  codes.OperationCodes,
			}
		}
	}
	return &TransportError{Op: "submit", Err: err}
}
