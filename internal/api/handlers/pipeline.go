package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/wonny/rotor/internal/pipeline"
	"github.com/wonny/rotor/pkg/logger"
)

// PipelineHandler triggers pipeline runs over HTTP
type PipelineHandler struct {
	runner  *pipeline.Runner
	running atomic.Bool
	logger  *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner *pipeline.Runner, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		logger: log,
	}
}

// Run starts a pipeline run in the background. Only one run at a time; a
// request while a run is active gets 409.
// POST /api/pipeline/run
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "Pipeline run already in progress")
		return
	}

	go func() {
		defer h.running.Store(false)

		if _, err := h.runner.Run(context.Background()); err != nil {
			h.logger.WithError(err).Error("Triggered pipeline run failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
	})
}
