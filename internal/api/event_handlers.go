package api

import (
	"net/http"
	"time"

	"github.com/example/event-ticketing/internal/api/middleware"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/go-chi/chi/v5"
)

type LocationRequest struct {
	Region      string    `json:"region"`
	Coordinates []float64 `json:"coordinates"`
}

type EventRequest struct {
	Name        string          `json:"name" validate:"required"`
	Slug        string          `json:"slug"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	IsFeatured  bool            `json:"isFeatured"`
	IsOnline    bool            `json:"isOnline"`
	IsPublish   bool            `json:"isPublish"`
	Banner      string          `json:"banner"`
	Location    LocationRequest `json:"location"`
}

func (req EventRequest) input() event.Input {
	return event.Input{
		Name:        req.Name,
		Slug:        req.Slug,
		Category:    req.Category,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsFeatured:  req.IsFeatured,
		IsOnline:    req.IsOnline,
		IsPublish:   req.IsPublish,
		Banner:      req.Banner,
		Location:    event.Location{Region: req.Location.Region, Coordinates: req.Location.Coordinates},
	}
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.events.Create(r.Context(), middleware.GetUserID(r.Context()), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success create an event", e)
}

// ListEvents supports search, category and the isOnline, isFeatured and
// isPublish flags.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := event.Query{
		Search:   searchFromRequest(r),
		Category: r.URL.Query().Get("category"),
		Page:     pageFromRequest(r),
	}
	var err error
	if q.IsOnline, err = boolParam(r, "isOnline"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.IsFeatured, err = boolParam(r, "isFeatured"); err != nil {
		h.fail(w, r, err)
		return
	}
	if q.IsPublish, err = boolParam(r, "isPublish"); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.events.FindAll(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all events", list.Items, list.Total, q.Page)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one event", e)
}

func (h *Handlers) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.FindOneBySlug(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one by slug", e)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success update an event", e)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success remove an event", e)
}
