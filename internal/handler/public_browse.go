// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API.  These routes allow
// unauthenticated users to browse offerings and their scheduled sessions
// without requiring authentication.  Sensitive fields (owner IDs, timestamps)
// are filtered from responses.

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	OfferingRepo *repository.OfferingRepo // provides access to offering data
	SessionRepo  *repository.SessionRepo  // provides access to session data
}

// PublicOffering represents an offering exposed via the public API.  It
// contains only safe fields.
type PublicOffering struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Kind                string `json:"kind"`
	PricePerPersonCents int64  `json:"price_per_person_cents"`
	Currency            string `json:"currency"`
}

// PublicSession represents a scheduled session in list responses.  The
// remaining capacity is included so clients can hide full sessions.
type PublicSession struct {
	ID             string    `json:"id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	AvailableSpots int       `json:"available_spots"`
}

// GetPublicOfferings returns every offering in the catalog.  Response
// JSON contains an "items" array of PublicOffering.
func (h *PublicHandler) GetPublicOfferings(c echo.Context) error {
	ctx := c.Request().Context()
	offerings, err := h.OfferingRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicOffering, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, publicOffering(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicOffering returns one offering together with its bookable
// sessions.  Availability can be transiently negative while a
// reservation is being verified; clamp to zero for display.
func (h *PublicHandler) GetPublicOffering(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	offering, err := h.OfferingRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	sessions, err := h.SessionRepo.ListScheduledByOffering(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]PublicSession, 0, len(sessions))
	for _, s := range sessions {
		spots := s.AvailableSpots
		if spots < 0 {
			spots = 0
		}
		items = append(items, PublicSession{
			ID:             s.ID,
			StartsAt:       s.StartsAt,
			EndsAt:         s.EndsAt,
			AvailableSpots: spots,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"offering": publicOffering(*offering),
		"sessions": items,
	})
}

func publicOffering(o model.Offering) PublicOffering {
	return PublicOffering{
		ID:                  o.ID,
		Title:               o.Title,
		Description:         o.Description,
		Kind:                o.Kind,
		PricePerPersonCents: o.PricePerPersonCents,
		Currency:            o.Currency,
	}
}
