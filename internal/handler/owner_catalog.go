package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
	"github.com/ferhatka/studio-booking/internal/service"
)

// OwnerHandler bundles dependencies for owners to manage the catalog:
// offerings, their session schedule and gift code batches.
type OwnerHandler struct {
	OfferingRepo *repository.OfferingRepo
	SessionRepo  *repository.SessionRepo
	Discounts    *service.DiscountCodeService
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any dependency is nil.
func NewOwnerHandler(offerings *repository.OfferingRepo, sessions *repository.SessionRepo, discounts *service.DiscountCodeService) *OwnerHandler {
	if offerings == nil || sessions == nil || discounts == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{OfferingRepo: offerings, SessionRepo: sessions, Discounts: discounts}
}

// ----- DTOs -----

type createOfferingReq struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Kind                string `json:"kind"` // SINGLE | MULTI
	Capacity            int    `json:"capacity"`
	PricePerPersonCents int64  `json:"price_per_person_cents"`
	Currency            string `json:"currency"`
}

type scheduleSessionReq struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type scheduleReq struct {
	Sessions []scheduleSessionReq `json:"sessions"`
}

type giftBatchReq struct {
	Count        int    `json:"count"`
	BalanceCents int64  `json:"balance_cents"`
	ExpiresAt    string `json:"expires_at,omitempty"` // RFC 3339, optional
}

// CreateOffering inserts a new offering owned by the caller.  Sessions
// are scheduled separately; capacity set here becomes the initial
// available_spots of every session.
func (h *OwnerHandler) CreateOffering(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createOfferingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if kind != model.OfferingKindSingle && kind != model.OfferingKindMulti {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be SINGLE or MULTI"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}
	if req.PricePerPersonCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	offering := &model.Offering{
		ID:                  uuid.New().String(),
		OwnerID:             uid,
		Title:               req.Title,
		Description:         strings.TrimSpace(req.Description),
		Kind:                kind,
		Capacity:            req.Capacity,
		PricePerPersonCents: req.PricePerPersonCents,
		Currency:            currency,
	}
	if err := h.OfferingRepo.Create(c.Request().Context(), offering); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create offering failed"})
	}
	return c.JSON(http.StatusCreated, offering)
}

// ScheduleSessions creates the session rows for an offering.  Each
// session starts with the offering's capacity as its available spots.
func (h *OwnerHandler) ScheduleSessions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	offering, err := h.OfferingRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if offering.OwnerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req scheduleReq
	if err := c.Bind(&req); err != nil || len(req.Sessions) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sessions required"})
	}
	for _, s := range req.Sessions {
		if s.StartsAt.IsZero() || s.EndsAt.IsZero() || !s.EndsAt.After(s.StartsAt) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each session needs starts_at before ends_at"})
		}
	}

	created := make([]model.Session, 0, len(req.Sessions))
	for _, s := range req.Sessions {
		sess := model.Session{
			ID:             uuid.New().String(),
			OfferingID:     offering.ID,
			StartsAt:       s.StartsAt.UTC(),
			EndsAt:         s.EndsAt.UTC(),
			AvailableSpots: offering.Capacity,
			Status:         model.SessionScheduled,
		}
		if err := h.SessionRepo.Create(ctx, &sess); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
		}
		created = append(created, sess)
	}
	// Surface the offering as freshly updated in list ordering.
	_ = h.OfferingRepo.Touch(ctx, offering.ID)

	return c.JSON(http.StatusCreated, echo.Map{"items": created})
}

// CancelSession closes a session for booking.  Existing bookings are
// untouched; only new reservations are prevented.
func (h *OwnerHandler) CancelSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	sess, err := h.SessionRepo.GetByID(ctx, c.Param("sessionId"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	offering, err := h.OfferingRepo.GetByID(ctx, sess.OfferingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if offering.OwnerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.SessionRepo.UpdateStatus(ctx, sess.ID, model.SessionCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel session failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GenerateGiftCodes mints a batch of gift codes with a shared starting
// balance.  Returns the generated code values.
func (h *OwnerHandler) GenerateGiftCodes(c echo.Context) error {
	var req giftBatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be RFC 3339"})
		}
		u := t.UTC()
		expiresAt = &u
	}

	codes, err := h.Discounts.GenerateGiftCodes(c.Request().Context(), req.Count, req.BalanceCents, expiresAt)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"codes": codes})
}
