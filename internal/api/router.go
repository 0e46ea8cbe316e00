package api

import (
	"net/http"

	"github.com/example/event-ticketing/internal/api/middleware"
	"github.com/example/event-ticketing/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// NewRouter wires every route with its access rule.
func NewRouter(handlers *Handlers, jwtService *auth.JWTService, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))

	authenticated := middleware.AuthMiddleware(jwtService)
	admin := middleware.RequireRole(auth.RoleAdmin)
	member := middleware.RequireRole(auth.RoleMember)
	anyRole := middleware.RequireRole(auth.RoleAdmin, auth.RoleMember)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/", handlers.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handlers.Register)
		r.Post("/login", handlers.Login)
		r.Post("/activation", handlers.Activation)
		r.With(authenticated).Get("/me", handlers.Me)
	})

	r.Route("/category", func(r chi.Router) {
		r.Get("/", handlers.ListCategories)
		r.Get("/{id}", handlers.GetCategory)
		r.With(authenticated, admin).Post("/", handlers.CreateCategory)
		r.With(authenticated, admin).Put("/{id}", handlers.UpdateCategory)
		r.With(authenticated, admin).Delete("/{id}", handlers.DeleteCategory)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", handlers.ListEvents)
		r.Get("/{id}", handlers.GetEvent)
		r.Get("/{id}/slug", handlers.GetEventBySlug)
		r.With(authenticated, admin).Post("/", handlers.CreateEvent)
		r.With(authenticated, admin).Put("/{id}", handlers.UpdateEvent)
		r.With(authenticated, admin).Delete("/{id}", handlers.DeleteEvent)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", handlers.ListTickets)
		r.Get("/{id}", handlers.GetTicket)
		r.Get("/{id}/events", handlers.ListTicketsByEvent)
		r.With(authenticated, admin).Post("/", handlers.CreateTicket)
		r.With(authenticated, admin).Put("/{id}", handlers.UpdateTicket)
		r.With(authenticated, admin).Delete("/{id}", handlers.DeleteTicket)
	})

	r.Route("/banners", func(r chi.Router) {
		r.Get("/", handlers.ListBanners)
		r.Get("/{id}", handlers.GetBanner)
		r.With(authenticated, admin).Post("/", handlers.CreateBanner)
		r.With(authenticated, admin).Put("/{id}", handlers.UpdateBanner)
		r.With(authenticated, admin).Delete("/{id}", handlers.DeleteBanner)
	})

	r.Route("/regions", func(r chi.Router) {
		r.Get("/", handlers.ListProvinces)
		r.Get("/{id}/province", handlers.GetProvince)
		r.Get("/{id}/regency", handlers.GetRegency)
		r.Get("/{id}/district", handlers.GetDistrict)
		r.Get("/{id}/village", handlers.GetVillage)
	})
	r.Get("/regions-search", handlers.SearchRegions)

	r.Route("/media", func(r chi.Router) {
		r.Use(authenticated, anyRole)
		r.Post("/upload-single", handlers.UploadSingle)
		r.Post("/upload-multiple", handlers.UploadMultiple)
		r.Delete("/remove", handlers.RemoveMedia)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticated)
		r.With(member).Post("/", handlers.CreateOrder)
		r.With(admin).Get("/", handlers.ListOrders)
		r.With(anyRole).Get("/{orderId}", handlers.GetOrder)
		r.With(member).Put("/{orderId}/completed", handlers.CompleteOrder)
		r.With(admin).Put("/{orderId}/pending", handlers.PendingOrder)
		r.With(admin).Put("/{orderId}/cancelled", handlers.CancelOrder)
		r.With(admin).Delete("/{orderId}", handlers.DeleteOrder)
	})
	r.With(authenticated, member).Get("/orders-history", handlers.OrderHistory)

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
