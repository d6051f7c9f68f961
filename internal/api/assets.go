package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/workflow"
)

// AssetsHandler handles the asset registry.
type AssetsHandler struct {
	DB       *sql.DB
	Workflow *workflow.Service
}

type registerAssetRequest struct {
	AssetTypeID  int64  `json:"asset_type_id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	Location     string `json:"location"`
	DepartmentID *int64 `json:"department_id"`
	Description  string `json:"description"`
	Remark       string `json:"remark"`
}

type updateAssetRequest struct {
	Name         *string `json:"name"`
	SerialNumber *string `json:"serial_number"`
	Model        *string `json:"model"`
	Location     *string `json:"location"`
	DepartmentID *int64  `json:"department_id"`
	Status       *string `json:"status"`
	CustodianID  *int64  `json:"custodian_id"`
	Description  *string `json:"description"`
	Remark       *string `json:"remark"`
}

type completeMaintenanceRequest struct {
	Note string `json:"note"`
}

// List handles GET /api/assets with optional asset_type_id, status,
// custodian_id, department_id and location filters.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.AssetFilter
	var err error
	if filter.AssetTypeID, err = queryID(r, "asset_type_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.CustodianID, err = queryID(r, "custodian_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.DepartmentID, err = queryID(r, "department_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Status = r.URL.Query().Get("status")
	if filter.Status != "" && !model.ValidAssetStatus(filter.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	filter.Location = r.URL.Query().Get("location")

	assets, err := store.ListAssets(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, "list assets", err)
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Register handles POST /api/assets.
func (h *AssetsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := store.RegisterAsset(r.Context(), h.DB, req.AssetTypeID, store.AssetInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		Location:     req.Location,
		DepartmentID: req.DepartmentID,
		Description:  req.Description,
		Remark:       req.Remark,
	})
	if err != nil {
		writeError(w, "register asset", err)
		return
	}

	slog.Info("asset registered", "user", GetClaims(r.Context()).Username, "asset", a.AssetNumber, "type", a.AssetTypeName)
	jsonResponse(w, http.StatusCreated, a)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	a, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, "get asset", err)
		return
	}
	if a == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Update handles PUT /api/assets/{id}.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req updateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := store.UpdateAsset(r.Context(), h.DB, id, store.AssetPatch{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		Location:     req.Location,
		DepartmentID: req.DepartmentID,
		Status:       req.Status,
		CustodianID:  req.CustodianID,
		Description:  req.Description,
		Remark:       req.Remark,
	})
	if err != nil {
		writeError(w, "update asset", err)
		return
	}

	slog.Info("asset updated", "user", GetClaims(r.Context()).Username, "asset", a.AssetNumber, "status", a.Status)
	jsonResponse(w, http.StatusOK, a)
}

// Delete handles DELETE /api/assets/{id}.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := store.DeleteAsset(r.Context(), h.DB, id); err != nil {
		writeError(w, "delete asset", err)
		return
	}

	slog.Info("asset deleted", "user", GetClaims(r.Context()).Username, "asset_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset deleted"})
}

// SupportHistory handles GET /api/assets/{id}/support-history.
func (h *AssetsHandler) SupportHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	entries, err := store.ListSupportHistory(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, "list support history", err)
		return
	}
	if entries == nil {
		entries = []model.SupportEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// CompleteMaintenance handles POST /api/assets/{id}/maintenance/complete.
func (h *AssetsHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req completeMaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.Workflow.CompleteMaintenance(r.Context(), id, GetClaims(r.Context()).UserID, req.Note)
	if err != nil {
		writeError(w, "complete maintenance", err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}
