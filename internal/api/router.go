package api

import (
	"context"
	"net/http"
	"time"

	"logistics-backoffice/internal/api/middleware"
	"logistics-backoffice/internal/modules/customer"
	order "logistics-backoffice/internal/modules/orders"
	"logistics-backoffice/internal/modules/shipment"
	"logistics-backoffice/internal/modules/upload"
	"logistics-backoffice/internal/modules/user"

	"github.com/labstack/echo/v4"
)

// Handlers are the module handlers mounted by SetupRoutes.
type Handlers struct {
	User     *user.Handler
	Customer *customer.Handler
	Order    *order.Handler
	Shipment *shipment.Handler
	Upload   *upload.Handler
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(e *echo.Echo, h Handlers, jwtSecret string, db Pinger) {
	// Initialize the JWT authentication middleware
	authMiddleware := middleware.JWTAuth(jwtSecret)
	// Initialize an Admin role authorization middleware
	adminRequired := middleware.AdminRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Logistics back-office API"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.Logger().Warnf("readiness check failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": false, "message": "database unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "ready"})
	})

	// Stored media is public, like the links handed out in shipment responses.
	e.GET("/uploads/*", h.Upload.ServeFile)

	apiGroup := e.Group("/api")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/signup", h.User.Signup)
		authGroup.POST("/login", h.User.Login)
		authGroup.GET("/profile", h.User.GetMyProfile, authMiddleware)
		authGroup.GET("/users", h.User.ListUsers, authMiddleware, adminRequired)
	}

	customer.RegisterRoutes(apiGroup.Group("/customers", authMiddleware), h.Customer)
	order.RegisterRoutes(apiGroup.Group("/orders", authMiddleware), h.Order)
	shipment.RegisterRoutes(apiGroup.Group("/shipments", authMiddleware), h.Shipment)
	upload.RegisterRoutes(apiGroup.Group("/upload", authMiddleware), h.Upload, adminRequired)
}
