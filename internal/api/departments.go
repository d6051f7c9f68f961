package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// DepartmentsHandler serves the department directory.
type DepartmentsHandler struct {
	DB *sql.DB
}

// List handles GET /api/departments.
func (h *DepartmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := store.ListDepartments(r.Context(), h.DB)
	if err != nil {
		writeError(w, "list departments", err)
		return
	}
	if departments == nil {
		departments = []model.Department{}
	}
	jsonResponse(w, http.StatusOK, departments)
}

// Create handles POST /api/departments.
func (h *DepartmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := store.CreateDepartment(r.Context(), h.DB, req.Name)
	if err != nil {
		writeError(w, "create department", err)
		return
	}
	jsonResponse(w, http.StatusCreated, d)
}
