package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/service"
)

// CronHandler exposes the expiry sweep to an external scheduler.  The
// same sweep also runs on an in-process ticker; both paths call the
// identical idempotent service method, so overlapping runs are safe.
type CronHandler struct {
	Bookings *service.BookingService
	Secret   string
}

func NewCronHandler(bookings *service.BookingService, secret string) *CronHandler {
	return &CronHandler{Bookings: bookings, Secret: secret}
}

// SweepExpired reclaims capacity from bookings whose payment deadline
// has passed.  Guarded by a shared secret header rather than a user
// JWT because the caller is a scheduler, not a person.
func (h *CronHandler) SweepExpired(c echo.Context) error {
	given := c.Request().Header.Get("X-Cron-Secret")
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	result, err := h.Bookings.HandleExpiredBookings(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("cron: sweep failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, result)
}
