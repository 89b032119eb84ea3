package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/config"
	"loyaltydesk/backoffice/internal/handler/middleware"
	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
)

type Handlers struct {
	Auth     *AuthHandler
	Customer *CustomerHandler
	Invoice  *InvoiceHandler
	Sales    *SalesHandler
}

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	h Handlers,
) (*gin.Engine, error) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := RegisterValidations(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// JSON APIs answer 401 without a session
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager))
	{
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)

		api.GET("/customers/search", h.Customer.Search)
		api.GET("/invoices/search", h.Invoice.Search)

		api.GET("/sales", h.Sales.Daily)
		api.GET("/sales/export", h.Sales.Export)
	}

	// Page-style routes answer the "not logged in" placeholder without a session
	pages := r.Group("/api/v1")
	pages.Use(middleware.SessionPage(jwtManager))
	{
		pages.GET("/home", h.Auth.Home)

		pages.GET("/customer/:id", h.Customer.Detail)
		pages.POST("/customers", h.Customer.Create)
		pages.PUT("/customers/:id", h.Customer.Update)
		pages.DELETE("/customers/:id", h.Customer.Delete)

		pages.POST("/invoice/:id/loyalty/claim", h.Invoice.ClaimLoyalty)
		pages.POST("/invoice/:id/referral/claim", h.Invoice.ClaimReferral)
		pages.POST("/invoices", h.Invoice.Create)
		pages.GET("/invoices/:id", h.Invoice.Get)
		pages.PUT("/invoices/:id", h.Invoice.Update)
		pages.DELETE("/invoices/:id", h.Invoice.Delete)
	}

	return r, nil
}
