package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/payment"
	"github.com/ferhatka/studio-booking/internal/service"
)

// maxWebhookBody caps how much of a webhook request is read.  Gateway
// events are small; anything larger is not one of ours.
const maxWebhookBody = 1 << 20

// PaymentWebhookHandler receives asynchronous events from the payment
// gateway.  Delivery is at-least-once, so the handler only acknowledges
// (200) events that were fully processed; everything else returns an
// error status and the gateway redelivers.
type PaymentWebhookHandler struct {
	Events *service.PaymentEventService
	Secret string
}

func NewPaymentWebhookHandler(events *service.PaymentEventService, secret string) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{Events: events, Secret: secret}
}

// Post verifies the event signature and dispatches it.  A bad signature
// is rejected with 401 before the body is even parsed.
func (h *PaymentWebhookHandler) Post(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	sig := c.Request().Header.Get("X-Payment-Signature")
	ev, err := payment.VerifyAndParse(h.Secret, sig, body)
	if err != nil {
		if errors.Is(err, payment.ErrSignatureInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	if err := h.Events.HandleEvent(c.Request().Context(), ev); err != nil {
		if errors.Is(err, service.ErrValidation) {
			// Never deliverable; acknowledging with 400 stops the retries.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		c.Logger().Errorf("webhook: event %s failed: %v", ev.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
