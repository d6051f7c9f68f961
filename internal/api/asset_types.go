package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// AssetTypesHandler handles the asset type catalog.
type AssetTypesHandler struct {
	DB *sql.DB
}

type createAssetTypeRequest struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// List handles GET /api/asset-types. ?active=true hides deactivated types.
func (h *AssetTypesHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	types, err := store.ListAssetTypes(r.Context(), h.DB, activeOnly)
	if err != nil {
		writeError(w, "list asset types", err)
		return
	}
	if types == nil {
		types = []model.AssetType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// Create handles POST /api/asset-types.
func (h *AssetTypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at, err := store.CreateAssetType(r.Context(), h.DB, req.Category, req.SubCategory, req.Name, req.Location, req.Description)
	if err != nil {
		writeError(w, "create asset type", err)
		return
	}

	slog.Info("asset type created", "user", GetClaims(r.Context()).Username, "type", at.Name, "category", at.Category)
	jsonResponse(w, http.StatusCreated, at)
}

// Get handles GET /api/asset-types/{id}.
func (h *AssetTypesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	at, err := store.GetAssetType(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, "get asset type", err)
		return
	}
	if at == nil {
		jsonError(w, http.StatusNotFound, "asset type not found")
		return
	}
	jsonResponse(w, http.StatusOK, at)
}

// Deactivate handles POST /api/asset-types/{id}/deactivate.
func (h *AssetTypesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	if err := store.DeactivateAssetType(r.Context(), h.DB, id); err != nil {
		writeError(w, "deactivate asset type", err)
		return
	}

	slog.Info("asset type deactivated", "user", GetClaims(r.Context()).Username, "type_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset type deactivated"})
}
