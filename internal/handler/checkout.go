package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/service"
)

// CheckoutHandler exposes the checkout entry point.  The heavy lifting
// (validation, discount and capacity reservation, gateway intent) lives
// in service.CheckoutService; this layer only translates HTTP.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
}

func NewCheckoutHandler(s *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Checkout: s}
}

type checkoutReq struct {
	OfferingID   string `json:"offering_id"`
	SessionID    string `json:"session_id,omitempty"` // required for SINGLE offerings
	PartySize    int    `json:"party_size"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	DiscountCode string `json:"discount_code,omitempty"`
}

type checkoutResp struct {
	Booking        bookingView `json:"booking"`
	AmountDueCents int64       `json:"amount_due_cents"`
	PaymentRef     string      `json:"payment_ref,omitempty"`
	RedirectURL    string      `json:"redirect_url,omitempty"`
	Paid           bool        `json:"paid"`
}

type bookingView struct {
	ID            string     `json:"id"`
	OfferingID    string     `json:"offering_id"`
	SessionIDs    []string   `json:"session_ids"`
	PartySize     int        `json:"party_size"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	TotalCents    int64      `json:"total_cents"`
	DiscountCents int64      `json:"discount_cents,omitempty"`
	Currency      string     `json:"currency"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func viewOf(b *model.Booking) bookingView {
	return bookingView{
		ID:            b.ID,
		OfferingID:    b.OfferingID,
		SessionIDs:    b.SessionIDs,
		PartySize:     b.PartySize,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalCents:    b.TotalCents,
		DiscountCents: b.DiscountCents,
		Currency:      b.Currency,
		ExpiresAt:     b.ExpiresAt,
	}
}

// PostCheckout holds spots for the customer and returns either a
// confirmed booking (when a code covered everything) or a redirect to
// the payment gateway.
func (h *CheckoutHandler) PostCheckout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	result, err := h.Checkout.Checkout(c.Request().Context(), service.CreateBookingParams{
		UserID:       uid,
		OfferingID:   req.OfferingID,
		SessionID:    req.SessionID,
		PartySize:    req.PartySize,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, checkoutResp{
		Booking:        viewOf(result.Booking),
		AmountDueCents: result.AmountDueCents,
		PaymentRef:     result.PaymentRef,
		RedirectURL:    result.RedirectURL,
		Paid:           result.Paid,
	})
}
