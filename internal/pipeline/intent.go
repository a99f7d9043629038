package pipeline

import (
	"errors"
	"fmt"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

var (
	// ErrInvalidIntent occurs when amount, limit, destination or memo
	// fields are malformed for the requested operation kind.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrInvalidSecretKey occurs when the supplied seed cannot produce a
	// valid signature for the target network.
	ErrInvalidSecretKey = errors.New("invalid secret key")
)

// Kind selects which single operation a built transaction carries.
type Kind string

const (
	KindPayment       Kind = "payment"
	KindChangeTrust   Kind = "change_trust"
	KindCreateAccount Kind = "create_account"
)

// Asset identifies a Stellar asset. The zero value is the native asset.
type Asset struct {
	Code   string `json:"code,omitempty"`
	Issuer string `json:"issuer,omitempty"`
}

// Native reports whether the asset is the network's native asset.
func (a Asset) Native() bool {
	return a.Code == ""
}

func (a Asset) toTxnbuild() txnbuild.Asset {
	if a.Native() {
		return txnbuild.NativeAsset{}
	}
	return txnbuild.CreditAsset{Code: a.Code, Issuer: a.Issuer}
}

// Intent is the caller-supplied description of a desired operation prior
// to construction. Which fields matter depends on the Kind: payments use
// Destination/Amount/Asset, trustlines use Asset/Limit, account creation
// uses Destination/Amount (starting balance). Ephemeral, input only.
type Intent struct {
	Destination string `json:"destination,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Asset       Asset  `json:"asset,omitempty"`
	Limit       string `json:"limit,omitempty"`
	Memo        string `json:"memo,omitempty"`
}

const maxMemoTextBytes = 28

// operation validates the intent for the given kind and produces the
// single txnbuild operation plus optional memo.
func (i Intent) operation(kind Kind) (txnbuild.Operation, txnbuild.Memo, error) {
	memo, err := i.memo()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case KindPayment:
		if err := validDestination(i.Destination); err != nil {
			return nil, nil, err
		}
		if err := validAmount("amount", i.Amount); err != nil {
			return nil, nil, err
		}
		if err := validAsset(i.Asset); err != nil {
			return nil, nil, err
		}
		return &txnbuild.Payment{
			Destination: i.Destination,
			Amount:      i.Amount,
			Asset:       i.Asset.toTxnbuild(),
		}, memo, nil

	case KindChangeTrust:
		if i.Asset.Native() {
			return nil, nil, fmt.Errorf("%w: trustline asset must not be native", ErrInvalidIntent)
		}
		if err := validAsset(i.Asset); err != nil {
			return nil, nil, err
		}
		if i.Limit != "" {
			if _, err := amount.Parse(i.Limit); err != nil {
				return nil, nil, fmt.Errorf("%w: limit %q: %v", ErrInvalidIntent, i.Limit, err)
			}
		}
		return &txnbuild.ChangeTrust{
			Line:  txnbuild.ChangeTrustAssetWrapper{Asset: txnbuild.CreditAsset{Code: i.Asset.Code, Issuer: i.Asset.Issuer}},
			Limit: i.Limit,
		}, memo, nil

	case KindCreateAccount:
		if err := validDestination(i.Destination); err != nil {
			return nil, nil, err
		}
		if err := validAmount("starting balance", i.Amount); err != nil {
			return nil, nil, err
		}
		return &txnbuild.CreateAccount{
			Destination: i.Destination,
			Amount:      i.Amount,
		}, memo, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown operation kind %q", ErrInvalidIntent, kind)
	}
}

func (i Intent) memo() (txnbuild.Memo, error) {
	if i.Memo == "" {
		return nil, nil
	}
	if len(i.Memo) > maxMemoTextBytes {
		return nil, fmt.Errorf("%w: memo exceeds %d bytes", ErrInvalidIntent, maxMemoTextBytes)
	}
	return txnbuild.MemoText(i.Memo), nil
}

func validDestination(destination string) error {
	if _, err := keypair.ParseAddress(destination); err != nil {
		return fmt.Errorf("%w: destination %q: %v", ErrInvalidIntent, destination, err)
	}
	return nil
}

func validAmount(field, value string) error {
	parsed, err := amount.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidIntent, field, value, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidIntent, field)
	}
	return nil
}

func validAsset(a Asset) error {
	if a.Native() {
		return nil
	}
	if len(a.Code) > 12 {
		return fmt.Errorf("%w: asset code %q too long", ErrInvalidIntent, a.Code)
	}
	if _, err := keypair.ParseAddress(a.Issuer); err != nil {
		return fmt.Errorf("%w: asset issuer %q: %v", ErrInvalidIntent, a.Issuer, err)
	}
	return nil
}
