package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// StockHandler handles stock records and their transactions.
type StockHandler struct {
	DB *sql.DB
}

// stockResponse adds the valuation to a stock record.
type stockResponse struct {
	model.AssetStock
	Value decimal.Decimal `json:"value"`
}

type createStockRequest struct {
	AssetTypeID     int64           `json:"asset_type_id"`
	Location        string          `json:"location"`
	Quantity        int             `json:"quantity"`
	MinimumQuantity int             `json:"minimum_quantity"`
	ReorderPoint    int             `json:"reorder_point"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Currency        string          `json:"currency"`
}

type updateStockRequest struct {
	Location        *string          `json:"location"`
	MinimumQuantity *int             `json:"minimum_quantity"`
	ReorderPoint    *int             `json:"reorder_point"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	Currency        *string          `json:"currency"`
}

type transactionRequest struct {
	Type            string `json:"type"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
}

func toStockResponses(stock []model.AssetStock) []stockResponse {
	out := make([]stockResponse, 0, len(stock))
	for _, s := range stock {
		out = append(out, stockResponse{AssetStock: s, Value: s.Value()})
	}
	return out
}

// List handles GET /api/stock?asset_type_id=&location=.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	typeID, err := queryID(r, "asset_type_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := store.ListStock(r.Context(), h.DB, store.StockFilter{
		AssetTypeID: typeID,
		Location:    r.URL.Query().Get("location"),
	})
	if err != nil {
		writeError(w, "list stock", err)
		return
	}
	jsonResponse(w, http.StatusOK, toStockResponses(stock))
}

// ListLow handles GET /api/stock/low.
func (h *StockHandler) ListLow(w http.ResponseWriter, r *http.Request) {
	stock, err := store.ListLowStock(r.Context(), h.DB)
	if err != nil {
		writeError(w, "list low stock", err)
		return
	}
	jsonResponse(w, http.StatusOK, toStockResponses(stock))
}

// Get handles GET /api/stock/{id}.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	s, err := store.GetStock(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, "get stock", err)
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "stock not found")
		return
	}
	jsonResponse(w, http.StatusOK, stockResponse{AssetStock: *s, Value: s.Value()})
}

// Create handles POST /api/stock.
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := store.CreateStock(r.Context(), h.DB, store.StockInput{
		AssetTypeID:     req.AssetTypeID,
		Location:        req.Location,
		Quantity:        req.Quantity,
		MinimumQuantity: req.MinimumQuantity,
		ReorderPoint:    req.ReorderPoint,
		UnitCost:        req.UnitCost,
		Currency:        req.Currency,
	})
	if err != nil {
		writeError(w, "create stock", err)
		return
	}

	slog.Info("stock created", "user", GetClaims(r.Context()).Username,
		"type", s.AssetTypeName, "location", s.Location, "quantity", s.Quantity)
	jsonResponse(w, http.StatusCreated, stockResponse{AssetStock: *s, Value: s.Value()})
}

// Update handles PUT /api/stock/{id}. Quantity cannot be changed here.
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	var req updateStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := store.UpdateStock(r.Context(), h.DB, id, store.StockPatch{
		Location:        req.Location,
		MinimumQuantity: req.MinimumQuantity,
		ReorderPoint:    req.ReorderPoint,
		UnitCost:        req.UnitCost,
		Currency:        req.Currency,
	})
	if err != nil {
		writeError(w, "update stock", err)
		return
	}
	jsonResponse(w, http.StatusOK, stockResponse{AssetStock: *s, Value: s.Value()})
}

// ListTransactions handles GET /api/stock/{id}/transactions.
func (h *StockHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	txs, err := store.ListTransactions(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, "list stock transactions", err)
		return
	}
	if txs == nil {
		txs = []model.StockTransaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// ApplyTransaction handles POST /api/stock/{id}/transactions.
func (h *StockHandler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid stock id")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	tx, err := store.ApplyTransaction(r.Context(), h.DB, store.TransactionInput{
		StockID:         id,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Reason:          req.Reason,
		PerformedBy:     claims.UserID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, "apply stock transaction", err)
		return
	}

	slog.Info("stock transaction applied", "user", claims.Username,
		"stock", id, "type", tx.Type, "quantity", tx.Quantity)
	jsonResponse(w, http.StatusCreated, tx)
}
