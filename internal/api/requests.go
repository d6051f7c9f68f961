package api

import (
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/workflow"
)

// RequestsHandler handles asset requests.
type RequestsHandler struct {
	Workflow *workflow.Service
}

type submitRequestRequest struct {
	AssetID    *int64 `json:"asset_id"`
	StockID    *int64 `json:"stock_id"`
	Quantity   int    `json:"quantity"`
	EmployeeID int64  `json:"employee_id"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
}

type decideRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// List handles GET /api/requests with optional employee_id, asset_id,
// status and type filters. Plain users only see their own requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var filter model.RequestFilter
	var err error
	if filter.EmployeeID, err = queryID(r, "employee_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.AssetID, err = queryID(r, "asset_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Status = r.URL.Query().Get("status")
	if filter.Status != "" && !model.ValidRequestStatus(filter.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	filter.Type = r.URL.Query().Get("type")
	if filter.Type != "" && !model.ValidRequestType(filter.Type) {
		jsonError(w, http.StatusBadRequest, "invalid type")
		return
	}

	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		filter.EmployeeID = claims.UserID
	}

	requests, err := h.Workflow.List(r.Context(), filter)
	if err != nil {
		writeError(w, "list requests", err)
		return
	}
	if requests == nil {
		requests = []model.AssetRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := h.Workflow.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get request", err)
		return
	}
	claims := GetClaims(r.Context())
	if req == nil || (req.EmployeeID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleManager)) {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Submit handles POST /api/requests. The requester is the caller unless a
// manager submits on behalf of another employee.
func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitRequestRequest
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	employeeID := claims.UserID
	if body.EmployeeID != 0 && body.EmployeeID != claims.UserID {
		if !model.RoleAtLeast(claims.Role, model.RoleManager) {
			jsonError(w, http.StatusForbidden, "cannot submit requests for other employees")
			return
		}
		employeeID = body.EmployeeID
	}

	req, err := h.Workflow.Submit(r.Context(), store.RequestInput{
		AssetID:    body.AssetID,
		StockID:    body.StockID,
		Quantity:   body.Quantity,
		EmployeeID: employeeID,
		Type:       body.Type,
		Reason:     body.Reason,
	})
	if err != nil {
		writeError(w, "submit request", err)
		return
	}
	jsonResponse(w, http.StatusCreated, req)
}

// Decide handles POST /api/requests/{id}/decision.
func (h *RequestsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body decideRequest
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Workflow.Decide(r.Context(), id, body.Decision, GetClaims(r.Context()).UserID, body.Comment)
	if err != nil {
		writeError(w, "decide request", err)
		return
	}
	jsonResponse(w, http.StatusOK, req)
}
