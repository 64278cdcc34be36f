package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/cash-advance-management/internal/auth"
	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/core/audit"
	"github.com/frahmantamala/cash-advance-management/internal/employee"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
	"github.com/frahmantamala/cash-advance-management/internal/transport/middleware"
	"github.com/frahmantamala/cash-advance-management/internal/transport/swagger"
	"github.com/frahmantamala/cash-advance-management/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, employeeHandler *employee.Handler, advanceHandler *cashadvance.Handler, paymentHandler *payment.Handler, auditHandler *audit.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
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

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler == nil {
			return
		}

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			if userHandler != nil {
				pr.Get("/users/me", userHandler.GetCurrentUser)

				pr.Group(func(ar chi.Router) {
					ar.Use(auth.RequireRole(user.RoleAdmin))
					ar.Post("/users", userHandler.CreateUser)
					ar.Get("/users", userHandler.ListUsers)
					ar.Get("/users/{id}", userHandler.GetUser)
					ar.Patch("/users/{id}/deactivate", userHandler.DeactivateUser)
				})
			}

			if employeeHandler != nil {
				pr.Route("/employees", func(er chi.Router) {
					er.Get("/", employeeHandler.ListEmployees)
					er.Get("/{id}", employeeHandler.GetEmployee)
					er.Get("/{id}/reports", employeeHandler.DirectReports)
					er.Get("/{id}/reports/all", employeeHandler.AllReports)
					er.Get("/{id}/supervisors", employeeHandler.SupervisorChain)

					if advanceHandler != nil {
						er.Get("/{id}/cash-advances", advanceHandler.ListAdvancesByEmployee)
					}

					// Record-changing operations are restricted to HR admins
					er.Group(func(ar chi.Router) {
						ar.Use(auth.RequireRole(user.RoleAdmin))
						ar.Post("/", employeeHandler.CreateEmployee)
						ar.Patch("/{id}", employeeHandler.UpdateEmployee)
						ar.Delete("/{id}", employeeHandler.DeleteEmployee)
					})
				})
			}

			if advanceHandler != nil {
				pr.Route("/cash-advances", func(cr chi.Router) {
					cr.Post("/", advanceHandler.SubmitAdvance)
					cr.Get("/", advanceHandler.ListAdvances)
					cr.Get("/summaries", advanceHandler.ListAdvanceSummaries)
					cr.Get("/{id}", advanceHandler.GetAdvance)
					cr.Get("/{id}/summary", advanceHandler.GetAdvanceSummary)

					// Lifecycle decisions require an approver role
					cr.Group(func(mr chi.Router) {
						mr.Use(auth.RequireRole(user.RoleAdmin, user.RoleSupervisor))
						mr.Patch("/{id}/approve", advanceHandler.ApproveAdvance)
						mr.Patch("/{id}/reject", advanceHandler.RejectAdvance)
						mr.Patch("/{id}/mark-paid", advanceHandler.MarkAdvancePaid)
					})

					if paymentHandler != nil {
						cr.Get("/{id}/payments", paymentHandler.ListPayments)
						cr.Get("/{id}/payments/{paymentID}", paymentHandler.GetPayment)

						cr.Group(func(mr chi.Router) {
							mr.Use(auth.RequireRole(user.RoleAdmin, user.RoleSupervisor))
							mr.Post("/{id}/payments", paymentHandler.RecordPayment)
						})
					}
				})
			}

			if auditHandler != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(auth.RequireRole(user.RoleAdmin))
					ar.Get("/audit-logs", auditHandler.ListEntries)
					ar.Get("/audit-logs/{entityType}/{entityID}", auditHandler.ListEntityEntries)
				})
			}
		})
	})
}
