package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/event-ticketing/internal/api/middleware"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/go-chi/chi/v5"
)

// OrderRequest places an order for a ticket type.
type OrderRequest struct {
	Ticket   string `json:"ticket" validate:"required"`
	Quantity int    `json:"quantity"`
}

func caller(r *http.Request) order.Caller {
	return order.Caller{
		ID:    middleware.GetUserID(r.Context()),
		Admin: middleware.IsAdmin(r.Context()),
	}
}

func orderQuery(r *http.Request) order.Query {
	return order.Query{
		Search: searchFromRequest(r),
		Status: order.Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))),
		Page:   pageFromRequest(r),
	}
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateInput{
		CreatedBy: middleware.GetUserID(r.Context()),
		Ticket:    req.Ticket,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success to create an order", o)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := orderQuery(r)
	list, err := h.orders.FindAll(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all orders", list.Items, list.Total, q.Page)
}

// OrderHistory lists the caller's own orders.
func (h *Handlers) OrderHistory(w http.ResponseWriter, r *http.Request) {
	q := orderQuery(r)
	list, err := h.orders.FindAllByOwner(r.Context(), caller(r), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all order history", list.Items, list.Total, q.Page)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.FindOne(r.Context(), caller(r), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one order", o)
}

func (h *Handlers) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Complete, "success to complete an order")
}

func (h *Handlers) PendingOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Pending, "success to pending an order")
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel, "success to cancel an order")
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Remove(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success to remove an order", o)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, order.Caller, string) (*order.Order, error), message string) {
	o, err := apply(r.Context(), caller(r), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, message, o)
}
