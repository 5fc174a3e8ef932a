package payout

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/synth-squad/payout-engine/internal/ledger"
	"github.com/synth-squad/payout-engine/internal/validate"
)

// Handler exposes the payout lifecycle over HTTP. Authentication happens in
// middleware; handlers read the attributed user_id from the echo context.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires the payout routes. authed carries the JWT middleware,
// admin additionally carries the admin guard.
func (h *Handler) Register(authed, admin *echo.Group) {
	authed.POST("/payout", h.RequestPayout)
	authed.GET("/payout/history", h.GetPayoutHistory)
	admin.GET("/payout/all", h.GetAllPayouts)
}

type payoutRequestBody struct {
	Amount         int64             `json:"amount"`
	Method         string            `json:"method"`
	AccountDetails map[string]string `json:"account_details"`
}

var saBanks = map[string]bool{
	"fnb": true, "absa": true, "standard": true, "nedbank": true, "capitec": true,
}

// RequestPayout handles POST /payout
func (h *Handler) RequestPayout(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body payoutRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if reason, ok := validDetails(body.Method, body.AccountDetails); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": reason})
	}

	req, err := h.svc.RequestPayout(c.Request().Context(), uid, body.Amount, body.Method, body.AccountDetails)
	if err != nil {
		return payoutError(c, err)
	}

	if req.Status == ledger.StatusFailed {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "payout failed",
			"details": req.FailureReason,
			"payout":  req,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"message":        "Payout processed successfully",
		"transaction_id": req.TransactionID,
		"payout":         req,
	})
}

func payoutError(c echo.Context, err error) error {
	var recErr *ReconciliationError
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	case errors.Is(err, ledger.ErrInsufficientTokens):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient tokens"})
	case errors.Is(err, ErrUnsupportedMethod):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported payout method"})
	case errors.Is(err, ledger.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.As(err, &recErr):
		// The request is preserved and flagged; surface it for follow-up.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "payout requires manual reconciliation",
			"payout_id": recErr.RequestID,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// validDetails vets the destination before any state is created. Bank
// methods need a valid SA account number; the others have their own shapes.
func validDetails(method string, details map[string]string) (string, bool) {
	if saBanks[method] {
		if !validate.BankAccount(method, details["accountNumber"]) {
			return "invalid bank account number", false
		}
		if details["accountHolder"] == "" {
			return "missing account holder name", false
		}
		if id := details["idNumber"]; id != "" && !validate.IDNumber(id) {
			return "invalid ID number", false
		}
		if cell := details["cell_number"]; cell != "" && !validate.MobileNumber(cell) {
			return "invalid mobile number", false
		}
	}
	return "", true
}

// GetPayoutHistory handles GET /payout/history
func (h *Handler) GetPayoutHistory(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	payouts, err := h.svc.GetPayoutHistory(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch payout history"})
	}
	if payouts == nil {
		payouts = []ledger.PayoutRequest{}
	}
	return c.JSON(http.StatusOK, echo.Map{"payouts": payouts})
}

// GetAllPayouts handles GET /payout/all (admin only)
func (h *Handler) GetAllPayouts(c echo.Context) error {
	payouts, err := h.svc.GetAllPayouts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch payouts"})
	}
	if payouts == nil {
		payouts = []ledger.PayoutRequestDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"payouts": payouts})
}
