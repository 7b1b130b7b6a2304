package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/ferhatka/studio-booking/internal/config"
	"github.com/ferhatka/studio-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/ferhatka/studio-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers or monitoring systems to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body containing a `refresh_token` and
	// invalidates that token; no JWT is required.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CUSTOMER"))
	auth.GET("/me", a.Me)
	// Revoke every session of the current user.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic registers unauthenticated browse endpoints.  The
// provided PublicHandler returns sanitized catalog data; these routes do
// not apply any JWT or role middleware and are intended for guests.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	// Expose the full offering catalog.
	e.GET("/v1/offerings", p.GetPublicOfferings)
	// One offering plus its bookable sessions and remaining spots.
	e.GET("/v1/offerings/:id", p.GetPublicOffering)
}

// RegisterBooking registers the checkout entry point and the customer's
// own-booking endpoints.  Checkout is additionally wrapped in the Redis
// token bucket because it is the route that takes capacity away from
// other buyers.
func RegisterBooking(e *echo.Echo, co *handler.CheckoutHandler, bk *handler.BookingHandler,
	jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OWNER", "CUSTOMER"))

	g.POST("/checkout", co.PostCheckout, middleware.NewTokenBucket(rlCfg, rdb))

	g.GET("/bookings", bk.ListMine)
	g.GET("/bookings/:id", bk.GetMine)
	g.DELETE("/bookings/:id", bk.CancelMine)
}

// RegisterOwner registers catalog management endpoints restricted to the
// OWNER role: creating offerings, scheduling and cancelling sessions and
// minting gift code batches.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group("/v1/owner")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OWNER"))

	g.POST("/offerings", o.CreateOffering)
	g.POST("/offerings/:id/sessions", o.ScheduleSessions)
	g.DELETE("/sessions/:sessionId", o.CancelSession)
	g.POST("/gift-codes", o.GenerateGiftCodes)
}

// RegisterIntegrations registers the machine-to-machine endpoints: the
// payment gateway webhook and the external cron trigger for the expiry
// sweep.  Neither uses JWT; each carries its own authentication (HMAC
// signature and shared secret header respectively).
func RegisterIntegrations(e *echo.Echo, wh *handler.PaymentWebhookHandler, cr *handler.CronHandler) {
	e.POST("/v1/webhooks/payment", wh.Post)
	e.POST("/internal/cron/expire-bookings", cr.SweepExpired)
}
