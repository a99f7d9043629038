package wallet

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenpay/lumenpay/internal/account"
	"github.com/lumenpay/lumenpay/internal/ledger"
	"github.com/lumenpay/lumenpay/internal/pipeline"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	wallet *Wallet
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(w *Wallet) *Handler {
	return &Handler{wallet: w}
}

type submitRequest struct {
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	Amount      string         `json:"amount"`
	Asset       pipeline.Asset `json:"asset"`
	Limit       string         `json:"limit"`
	Memo        string         `json:"memo"`
}

func (r submitRequest) intent() pipeline.Intent {
	return pipeline.Intent{
		Destination: r.Destination,
		Amount:      r.Amount,
		Asset:       r.Asset,
		Limit:       r.Limit,
		Memo:        r.Memo,
	}
}

type submissionResponse struct {
	Hash       string `json:"hash"`
	Ledger     int32  `json:"ledger"`
	Successful bool   `json:"successful"`
}

// httpError translates domain errors into transport status codes.
func httpError(err error) error {
	var rej *ledger.RejectionError
	var tr *ledger.TransportError
	switch {
	case errors.Is(err, account.ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrInvalidIntent), errors.Is(err, pipeline.ErrInvalidSecretKey):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &rej):
		return fiber.NewError(http.StatusUnprocessableEntity, rej.Error())
	case errors.As(err, &tr):
		return fiber.NewError(http.StatusBadGateway, tr.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

// Refresh reloads an account from the network and stores fresh balances.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	acct, err := h.wallet.RefreshAccount(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":       acct.ID,
		"balances": acct.Balances,
	})
}

// Payments lists recent payments touching the account.
func (h *Handler) Payments(c *fiber.Ctx) error {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
		}
		limit = n
	}
	payments, err := h.wallet.Payments(c.UserContext(), c.Params("accountId"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(payments)
}

// SendPayment builds, signs and submits a payment from the source account.
func (h *Handler) SendPayment(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.wallet.SendPayment(c.UserContext(), req.Source, req.intent())
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(submissionResponse{Hash: res.Hash, Ledger: res.Ledger, Successful: res.Successful})
}

// ChangeTrust establishes or adjusts a trustline from the source account.
func (h *Handler) ChangeTrust(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.wallet.ChangeTrust(c.UserContext(), req.Source, req.intent())
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(submissionResponse{Hash: res.Hash, Ledger: res.Ledger, Successful: res.Successful})
}

// Fund creates and funds a new account on the network.
func (h *Handler) Fund(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.wallet.CreateAccount(c.UserContext(), req.Source, req.intent())
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(submissionResponse{Hash: res.Hash, Ledger: res.Ledger, Successful: res.Successful})
}

// WatchAccount opens a transaction stream for the account.
func (h *Handler) WatchAccount(c *fiber.Ctx) error {
	id, err := h.wallet.WatchAccount(c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"subscription_id": id})
}

// WatchPayments opens a payment stream for the account.
func (h *Handler) WatchPayments(c *fiber.Ctx) error {
	id, err := h.wallet.WatchPayments(c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"subscription_id": id})
}

// Unwatch tears down a subscription by id.
func (h *Handler) Unwatch(c *fiber.Ctx) error {
	if !h.wallet.Unwatch(c.Params("subscriptionId")) {
		return fiber.NewError(http.StatusNotFound, "subscription not found")
	}
	return c.SendStatus(http.StatusNoContent)
}
