package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
	"github.com/ferhatka/studio-booking/internal/service"
)

// BookingHandler serves a customer's own bookings.
type BookingHandler struct {
	Bookings    *service.BookingService
	BookingRepo *repository.BookingRepo
}

func NewBookingHandler(s *service.BookingService, r *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Bookings: s, BookingRepo: r}
}

// ListMine returns every booking belonging to the authenticated user.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.BookingRepo.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]bookingView, 0, len(bookings))
	for i := range bookings {
		items = append(items, viewOf(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMine returns one booking, only to its owner.
func (h *BookingHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if booking.UserID != uid {
		// Do not reveal that the booking exists.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, viewOf(booking))
}

// CancelMine lets a customer abandon their own pending booking.  The
// held spots and any reserved discount value go back immediately.
// Cancelling a booking that is already gone or already confirmed is a
// no-op for the spots but still reported as 404/409 here so the client
// learns the real state.
func (h *BookingHandler) CancelMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	booking, err := h.Bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if booking.UserID != uid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if booking.Status != model.BookingPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already confirmed"})
	}
	if err := h.Bookings.CancelBooking(ctx, booking.ID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
