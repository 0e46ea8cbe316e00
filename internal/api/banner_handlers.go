package api

import (
	"net/http"

	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/go-chi/chi/v5"
)

type BannerRequest struct {
	Title  string `json:"title" validate:"required"`
	Image  string `json:"image" validate:"required"`
	IsShow bool   `json:"isShow"`
}

func (req BannerRequest) input() banner.Input {
	return banner.Input{Title: req.Title, Image: req.Image, IsShow: req.IsShow}
}

func (h *Handlers) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	b, err := h.banners.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success create banner", b)
}

func (h *Handlers) ListBanners(w http.ResponseWriter, r *http.Request) {
	isShow, err := boolParam(r, "isShow")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := banner.Query{Search: searchFromRequest(r), IsShow: isShow, Page: pageFromRequest(r)}

	list, err := h.banners.FindAll(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "success find all banners", list.Items, list.Total, q.Page)
}

func (h *Handlers) GetBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.banners.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success find one banner", b)
}

func (h *Handlers) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	b, err := h.banners.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success update banner", b)
}

func (h *Handlers) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.banners.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success remove banner", b)
}
