package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/gigvoice/internal/profile"
	gvmiddleware "github.com/hrygo/gigvoice/server/middleware"
	"github.com/hrygo/gigvoice/server/service/assistant"
	"github.com/hrygo/gigvoice/store"
)

type APIV1Service struct {
	Profile          *profile.Profile
	Store            *store.Store
	AssistantService *assistant.Service

	limiter *gvmiddleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, assistantService *assistant.Service) *APIV1Service {
	return &APIV1Service{
		Profile:          profile,
		Store:            store,
		AssistantService: assistantService,
		limiter:          gvmiddleware.NewRateLimiter(profile.RateLimitRPS, profile.RateLimitBurst),
	}
}

// RateLimiter returns the limiter guarding /api so its owner can run the idle sweep.
func (s *APIV1Service) RateLimiter() *gvmiddleware.RateLimiter {
	return s.limiter
}

// RegisterRoutes registers the HTTP API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)

	corsHandler := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	})
	api := echoServer.Group("/api", corsHandler, s.limiter.Middleware())

	// /api/chat is kept for clients that predate the versioned path.
	api.POST("/chat", s.HandleUtterance)

	v1 := api.Group("/v1")
	v1.POST("/assistant", s.HandleUtterance)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/feed.atom", s.GetOrderFeed)
	v1.GET("/orders/:code", s.GetOrder)
	v1.DELETE("/orders/:id", s.DeleteOrder)
	v1.GET("/system/metrics", s.GetMetricsOverview)
}

// Healthz reports liveness and the server version.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}
