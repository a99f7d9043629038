package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenpay/lumenpay/internal/ledger"
)

// Handler exposes account directory endpoints.
type Handler struct {
	directory *Directory
}

// NewHandler constructs an account HTTP handler.
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

type storeRequest struct {
	Public      string `json:"public"`
	Secret      string `json:"secret"`
	DisplayName string `json:"display_name"`
}

type generateRequest struct {
	DisplayName string `json:"display_name"`
}

type accountResponse struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name,omitempty"`
	CanSign     bool             `json:"can_sign"`
	Balances    []ledger.Balance `json:"balances"`
	CreatedAt   string           `json:"created_at"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		CanSign:     a.KeyPair.CanSign(),
		Balances:    a.Balances,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Store imports an existing keypair, watch-only when no secret is given.
func (h *Handler) Store(c *fiber.Ctx) error {
	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.directory.Store(c.UserContext(), StoreInput{
		Public:      req.Public,
		Secret:      req.Secret,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(acct))
}

// Generate creates a fresh keypair and stores it.
func (h *Handler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.directory.Generate(c.UserContext(), req.DisplayName)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(acct))
}

// Get returns a stored account by public key.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, err := h.directory.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(acct))
}

// List returns every stored account.
func (h *Handler) List(c *fiber.Ctx) error {
	accts, err := h.directory.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]accountResponse, 0, len(accts))
	for _, a := range accts {
		out = append(out, toResponse(a))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Delete removes a stored account.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.directory.Delete(c.UserContext(), c.Params("accountId")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
