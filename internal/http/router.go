package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HealthReporter exposes the latest backend probe results.
type HealthReporter interface {
	Healthy() bool
	Status() map[string]string
}

type RouterConfig struct {
	Registry           AppRegistry
	Health             HealthReporter
	Logger             *zap.Logger
	LoginLimiter       *RateLimiter
	RequestTimeout     time.Duration
	SessionWait        time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	catalogHandler := NewCatalogHandler(cfg.RequestTimeout)
	cartHandler := NewCartHandler(cfg.RequestTimeout)
	sessionHandler := NewSessionHandler(cfg.RequestTimeout, cfg.SessionWait)
	checkoutHandler := NewCheckoutHandler(cfg.RequestTimeout, cfg.SessionWait)
	sellerHandler := NewSellerHandler(cfg.RequestTimeout, cfg.SessionWait)
	profileHandler := NewProfileHandler(cfg.RequestTimeout, cfg.SessionWait)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler(cfg.Health))

		r.Group(func(r chi.Router) {
			r.Use(VisitorMiddleware(cfg.Registry, cfg.SecureCookies))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Post("/products/describe", catalogHandler.Describe)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/categories/{category}/products", catalogHandler.ListByCategory)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
				r.Delete("/", cartHandler.ClearCart)
			})

			r.Route("/session", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.With(cfg.LoginLimiter.Middleware).Post("/login", sessionHandler.Login)
				r.With(cfg.LoginLimiter.Middleware).Post("/signup", sessionHandler.Signup)
				r.Post("/logout", sessionHandler.Logout)
			})

			r.Post("/checkout", checkoutHandler.PlaceOrder)
			r.Get("/profile", profileHandler.GetProfile)

			r.Route("/seller", func(r chi.Router) {
				r.Get("/orders", sellerHandler.ListOrders)
				r.Post("/orders/{order_id}/shipped", sellerHandler.ToggleShipped)
				r.Post("/products", sellerHandler.AddProduct)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

func healthHandler(health HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}
		if health != nil {
			body["checks"] = health.Status()
			if !health.Healthy() {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		respondJSON(w, status, body)
	}
}
