package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/ticket"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a core error to its HTTP status. Classified errors carry a
// message meant for the caller and are passed through verbatim.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ticket.ErrBridge):
		slog.Warn("ticket system unavailable", "op", op, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "support ticket system unavailable, try again later")
	case errors.Is(err, store.ErrUnavailable):
		slog.Warn("storage unavailable", "op", op, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "storage busy, try again later")
	default:
		slog.Error("request failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return id, nil
}
