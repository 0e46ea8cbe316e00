package api

import (
	"context"
	"net/http"

	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.regions.Provinces(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success get all provinces", provinces)
}

func (h *Handlers) GetProvince(w http.ResponseWriter, r *http.Request) {
	h.regionTree(w, r, h.regions.Province, "success get regencies by province")
}

func (h *Handlers) GetRegency(w http.ResponseWriter, r *http.Request) {
	h.regionTree(w, r, h.regions.Regency, "success get districts by regency")
}

func (h *Handlers) GetDistrict(w http.ResponseWriter, r *http.Request) {
	h.regionTree(w, r, h.regions.District, "success get villages by district")
}

func (h *Handlers) GetVillage(w http.ResponseWriter, r *http.Request) {
	v, err := h.regions.Village(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success get village", v)
}

func (h *Handlers) SearchRegions(w http.ResponseWriter, r *http.Request) {
	found, err := h.regions.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success get regencies by name", found)
}

func (h *Handlers) regionTree(w http.ResponseWriter, r *http.Request, find func(context.Context, string) (*region.Tree, error), message string) {
	tree, err := find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, message, tree)
}
