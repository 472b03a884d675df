package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/reservation-management/internal/commission"
	"github.com/frahmantamala/reservation-management/internal/payout"
	"github.com/frahmantamala/reservation-management/internal/reporting"
	"github.com/frahmantamala/reservation-management/internal/reservation"
	"github.com/frahmantamala/reservation-management/internal/transport/middleware"
	"github.com/frahmantamala/reservation-management/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, reservationHandler *reservation.Handler, commissionHandler *commission.Handler, payoutHandler *payout.Handler, reportingHandler *reporting.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.Actor)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if commissionHandler != nil {
			r.Route("/commission", func(cr chi.Router) {
				cr.Get("/rate", commissionHandler.GetRate)
				cr.Put("/rate", commissionHandler.UpdateRate)
				cr.Get("/history", commissionHandler.GetHistory)
			})
		}

		if reservationHandler != nil {
			r.Route("/reservations", func(rr chi.Router) {
				rr.Get("/availability", reservationHandler.CheckAvailability)
				rr.Post("/cleanup-expired", reservationHandler.CleanupExpired)

				rr.Get("/{id}", reservationHandler.GetReservation)
				rr.Patch("/{id}/status", reservationHandler.UpdateStatus)
				rr.Patch("/{id}/payment-status", reservationHandler.UpdatePaymentStatus)
				rr.Put("/{id}/additional-services", reservationHandler.UpsertServices)

				rr.Post("/{id}/cancellation", reservationHandler.RequestCancellation)
				rr.Post("/{id}/cancellation/approve", reservationHandler.ApproveCancellation)
				rr.Post("/{id}/cancellation/reject", reservationHandler.RejectCancellation)

				rr.Post("/{id}/confirm", reservationHandler.ConfirmReservation)
				rr.Post("/{id}/refuse", reservationHandler.RefuseReservation)
			})

			r.Get("/hosts/{hostID}/reservations", reservationHandler.ListHostReservations)
			r.Get("/guests/{guestID}/reservations", reservationHandler.ListGuestReservations)
			r.Get("/properties/{propertyID}/reservations", reservationHandler.ListPropertyReservations)
		}

		if payoutHandler != nil {
			r.Route("/payouts", func(pr chi.Router) {
				pr.Post("/calculate", payoutHandler.Calculate)
				pr.Get("/payments", payoutHandler.ListPayments)
				pr.Get("/payments/{id}", payoutHandler.GetPayment)
				pr.Get("/payments/{id}/details", payoutHandler.GetPaymentDetails)
				pr.Post("/payments/{id}/mark-paid", payoutHandler.MarkPaid)
				pr.Get("/stats", payoutHandler.GetAppStats)
			})

			r.Get("/hosts/{hostID}/payments", payoutHandler.ListHostPayments)
			r.Get("/hosts/{hostID}/stats", payoutHandler.GetHostStats)
		}

		if reportingHandler != nil {
			r.Route("/reports", func(rr chi.Router) {
				rr.Get("/revenue-trend", reportingHandler.RevenueTrend)
				rr.Get("/property-summary", reportingHandler.PropertySummary)
			})
		}
	})
}
