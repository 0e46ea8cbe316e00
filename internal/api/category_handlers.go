package api

import (
	"net/http"

	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/go-chi/chi/v5"
)

// CategoryRequest represents the request body for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (req CategoryRequest) input() category.Input {
	return category.Input{Name: req.Name, Description: req.Description, Icon: req.Icon}
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.categories.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success create a category", c)
}

// ListCategories returns one page of categories
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	list, err := h.categories.FindAll(r.Context(), category.Query{Search: searchFromRequest(r), Page: page})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all category", list.Items, list.Total, page)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one category", c)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.categories.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success update category", c)
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success remove category", c)
}
