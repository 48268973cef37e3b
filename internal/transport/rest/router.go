package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/giving-api/internal/donation"
	"github.com/frahmantamala/giving-api/internal/fund"
	"github.com/frahmantamala/giving-api/internal/gateway"
	"github.com/frahmantamala/giving-api/internal/paymentmethod"
	"github.com/frahmantamala/giving-api/internal/subscription"
	"github.com/frahmantamala/giving-api/internal/transport/middleware"
	"github.com/frahmantamala/giving-api/internal/transport/swagger"
	"github.com/frahmantamala/giving-api/internal/webhook"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Gateway       *gateway.Handler
	Fund          *fund.Handler
	Donation      *donation.Handler
	Webhook       *webhook.Handler
	Subscription  *subscription.Handler
	PaymentMethod *paymentmethod.Handler
}

// RegisterAllRoutes mounts the full API. The webhook endpoint stays outside
// the authenticated group: the provider signs its requests instead of
// carrying a token, and the tenant rides in the query string.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, tokenSecret string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Provider-facing webhook, signature-authenticated.
	if handlers.Webhook != nil {
		router.Post("/donate/webhook/{provider}", handlers.Webhook.HandleProviderEvent)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticator(tokenSecret))

			if handlers.Gateway != nil {
				pr.Route("/gateways", func(gr chi.Router) {
					gr.Get("/", handlers.Gateway.ListGateways)
					gr.Post("/", handlers.Gateway.SaveGateway)
					gr.Delete("/{id}", handlers.Gateway.DeleteGateway)
				})
			}

			if handlers.Fund != nil {
				pr.Route("/funds", func(fr chi.Router) {
					fr.Get("/", handlers.Fund.GetFunds)
					fr.Post("/", handlers.Fund.SaveFund)
					fr.Get("/{id}", handlers.Fund.GetFund)
					fr.Delete("/{id}", handlers.Fund.DeleteFund)
				})
			}

			if handlers.Donation != nil {
				pr.Route("/donate", func(dr chi.Router) {
					dr.Post("/charge", handlers.Donation.Charge)
					dr.Post("/checkout", handlers.Donation.Checkout)
					dr.Post("/fee", handlers.Donation.EstimateFee)
				})

				pr.Route("/donations", func(dr chi.Router) {
					dr.Post("/", handlers.Donation.RecordDonation)
					dr.Get("/summary", handlers.Donation.GetSummary)
					dr.Get("/{id}", handlers.Donation.GetDonation)
					dr.Delete("/{id}", handlers.Donation.DeleteDonation)
					dr.Get("/person/{personId}", handlers.Donation.GetPersonDonations)
				})

				pr.Route("/batches", func(br chi.Router) {
					br.Get("/", handlers.Donation.GetBatches)
					br.Get("/{id}/donations", handlers.Donation.GetBatchDonations)
					br.Get("/{id}/summary", handlers.Donation.GetBatchSummary)
				})
			}

			if handlers.Subscription != nil {
				pr.Route("/subscriptions", func(sr chi.Router) {
					sr.Post("/", handlers.Subscription.CreateSubscription)
					sr.Get("/{id}", handlers.Subscription.GetSubscription)
					sr.Patch("/{id}/paymentmethod", handlers.Subscription.UpdatePaymentMethod)
					sr.Delete("/{id}", handlers.Subscription.CancelSubscription)
					sr.Get("/person/{personId}", handlers.Subscription.GetPersonSubscriptions)
					sr.Get("/customer/{customerId}", handlers.Subscription.GetCustomerSubscriptions)
				})
			}

			if handlers.PaymentMethod != nil {
				pr.Route("/paymentmethods", func(pmr chi.Router) {
					pmr.Post("/card", handlers.PaymentMethod.AddCard)
					pmr.Post("/bank", handlers.PaymentMethod.AddBank)
					pmr.Patch("/{id}", handlers.PaymentMethod.UpdatePaymentMethod)
					pmr.Post("/{id}/verify", handlers.PaymentMethod.VerifyBank)
					pmr.Delete("/{id}", handlers.PaymentMethod.DetachPaymentMethod)
					pmr.Get("/person/{personId}", handlers.PaymentMethod.GetPersonPaymentMethods)
				})
			}

			if handlers.Webhook != nil {
				pr.Route("/eventlogs", func(er chi.Router) {
					er.Get("/failures", handlers.Webhook.GetFailures)
					er.Patch("/{id}/resolve", handlers.Webhook.ResolveFailure)
				})
			}
		})
	})
}
