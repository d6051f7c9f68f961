package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/workflow"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, wf *workflow.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	departmentsHandler := &DepartmentsHandler{DB: db}
	typesHandler := &AssetTypesHandler{DB: db}
	stockHandler := &StockHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db, Workflow: wf}
	requestsHandler := &RequestsHandler{Workflow: wf}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Departments: read (all roles), write (admin).
	mux.Handle("GET /api/departments", authMW(http.HandlerFunc(departmentsHandler.List)))
	mux.Handle("POST /api/departments", authMW(requireAdmin(http.HandlerFunc(departmentsHandler.Create))))

	// Asset types: read (all roles), write (manager+).
	mux.Handle("GET /api/asset-types", authMW(http.HandlerFunc(typesHandler.List)))
	mux.Handle("POST /api/asset-types", authMW(requireManager(http.HandlerFunc(typesHandler.Create))))
	mux.Handle("GET /api/asset-types/{id}", authMW(http.HandlerFunc(typesHandler.Get)))
	mux.Handle("POST /api/asset-types/{id}/deactivate", authMW(requireManager(http.HandlerFunc(typesHandler.Deactivate))))

	// Stock: read (all roles), write (manager+).
	mux.Handle("GET /api/stock", authMW(http.HandlerFunc(stockHandler.List)))
	mux.Handle("GET /api/stock/low", authMW(http.HandlerFunc(stockHandler.ListLow)))
	mux.Handle("POST /api/stock", authMW(requireManager(http.HandlerFunc(stockHandler.Create))))
	mux.Handle("GET /api/stock/{id}", authMW(http.HandlerFunc(stockHandler.Get)))
	mux.Handle("PUT /api/stock/{id}", authMW(requireManager(http.HandlerFunc(stockHandler.Update))))
	mux.Handle("GET /api/stock/{id}/transactions", authMW(http.HandlerFunc(stockHandler.ListTransactions)))
	mux.Handle("POST /api/stock/{id}/transactions", authMW(requireManager(http.HandlerFunc(stockHandler.ApplyTransaction))))

	// Assets: read (all roles), write (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireManager(http.HandlerFunc(assetsHandler.Register))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}", authMW(requireManager(http.HandlerFunc(assetsHandler.Update))))
	mux.Handle("DELETE /api/assets/{id}", authMW(requireManager(http.HandlerFunc(assetsHandler.Delete))))
	mux.Handle("GET /api/assets/{id}/support-history", authMW(http.HandlerFunc(assetsHandler.SupportHistory)))
	mux.Handle("POST /api/assets/{id}/maintenance/complete", authMW(requireManager(http.HandlerFunc(assetsHandler.CompleteMaintenance))))

	// Requests: submit and read own (all roles), decide (manager+).
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Submit)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/decision", authMW(requireManager(http.HandlerFunc(requestsHandler.Decide))))

	return mux
}
