package api

import (
	"database/sql"
	"net/http"

	"lunari-cart/internal/cart"
	"lunari-cart/internal/checkout"
	"lunari-cart/internal/config"
	"lunari-cart/internal/jobs"
	"lunari-cart/internal/logger"
	"lunari-cart/internal/middleware"
	"lunari-cart/internal/order"
	"lunari-cart/internal/payment"

	"github.com/go-chi/chi/v5"
)

type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	Carts    cart.Service
	Orders   order.Service
	Checkout checkout.Service
	Payments payment.Repository
	Failures jobs.FailureRepository
}

// NewRouter builds the HTTP surface: health first, then the API behind
// the auth, logging, and rate-limit chain.
func NewRouter(d Deps) http.Handler {
	carts := &cartHandler{carts: d.Carts}
	orders := &orderHandler{orders: d.Orders}
	checkouts := &checkoutHandler{checkout: d.Checkout}
	payments := &paymentHandler{payments: d.Payments}
	jobFailures := &jobsHandler{failures: d.Failures}

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.Auth(d.Config.JWTSecret))
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(d.Config.ServiceAPIKey))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", carts.getOrCreate)
			r.Get("/", carts.listMine)
			r.Get("/stats", carts.stats)
			r.Get("/{id}", carts.get)
			r.Post("/{id}/items", carts.addItem)
			r.Delete("/{id}/items", carts.clear)
			r.Post("/{id}/abandon", carts.abandon)
			r.Put("/items/{itemID}", carts.updateItem)
			r.Delete("/items/{itemID}", carts.removeItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/initiate", checkouts.initiate)
			// The provider redirects the buyer's browser back with
			// token_ws in the query string, so confirm answers GET too.
			r.Get("/confirm", checkouts.confirm)
			r.Post("/confirm", checkouts.confirm)
			r.Post("/orders/{id}/retry-payment", checkouts.retryPayment)
			r.Post("/orders/{id}/expire", checkouts.expire)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.list)
			r.Get("/{id}", orders.get)
			r.Get("/number/{number}", orders.getByNumber)
			r.Post("/{id}/cancel", orders.cancel)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/order/{orderID}", payments.getByOrder)
			r.Get("/token/{token}", payments.getByToken)
		})

		r.Route("/admin/job-failures", func(r chi.Router) {
			r.Get("/", jobFailures.listFailures)
			r.Post("/{id}/resolve", jobFailures.resolveFailure)
		})
	})

	return r
}
