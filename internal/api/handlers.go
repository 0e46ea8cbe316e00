package api

import (
	"net/http"

	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/media"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Services groups the domain services the HTTP layer serves.
type Services struct {
	Users      *user.Service
	Categories *category.Service
	Events     *event.Service
	Tickets    *ticket.Service
	Banners    *banner.Service
	Regions    *region.Service
	Media      *media.Service
	Orders     *order.Service
}

// Options tune request handling.
type Options struct {
	// MaxUploadBytes bounds a media upload request body.
	MaxUploadBytes int64
	// SecureCookie marks the access token cookie Secure.
	SecureCookie bool
}

type Handlers struct {
	users      *user.Service
	categories *category.Service
	events     *event.Service
	tickets    *ticket.Service
	banners    *banner.Service
	regions    *region.Service
	media      *media.Service
	orders     *order.Service

	validator *validator.Validate
	opts      Options
	logger    *zap.Logger
}

func NewHandlers(svc Services, opts Options, logger *zap.Logger) *Handlers {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handlers{
		users:      svc.Users,
		categories: svc.Categories,
		events:     svc.Events,
		tickets:    svc.Tickets,
		banners:    svc.Banners,
		regions:    svc.Regions,
		media:      svc.Media,
		orders:     svc.Orders,
		validator:  NewValidator(),
		opts:       opts,
		logger:     logger,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "Server is running!", nil)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, h.logger, err)
}
