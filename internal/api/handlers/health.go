package handlers

import (
	"net/http"

	"github.com/wonny/rotor/pkg/database"
)

// HealthHandler reports service and database health
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Get returns the health status
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, _ := h.db.HealthCheck(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"service":  "rotor-api",
		"database": status,
	})
}
