package api

import (
	"net/http"

	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/go-chi/chi/v5"
)

// TicketRequest carries price in minor units.
type TicketRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
	Events      string `json:"events" validate:"required"`
}

func (req TicketRequest) input() ticket.Input {
	return ticket.Input{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Events:      req.Events,
	}
}

func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.tickets.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success create ticket", t)
}

func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	q := ticket.Query{Search: searchFromRequest(r), Page: pageFromRequest(r)}
	list, err := h.tickets.FindAll(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all tickets", list.Items, list.Total, q.Page)
}

func (h *Handlers) ListTicketsByEvent(w http.ResponseWriter, r *http.Request) {
	q := ticket.Query{Search: searchFromRequest(r), Page: pageFromRequest(r)}
	list, err := h.tickets.FindAllByEvent(r.Context(), chi.URLParam(r, "id"), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all tickets by an event", list.Items, list.Total, q.Page)
}

func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.tickets.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one ticket", t)
}

func (h *Handlers) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.tickets.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success update ticket", t)
}

func (h *Handlers) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.tickets.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success remove ticket", t)
}
