package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency the readiness probe should check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks         map[string]Pinger
	isShuttingDown func() bool
}

// create a new instance of the health handler; nil pingers are skipped
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{checks: live, isShuttingDown: func() bool { return false }}
}

// WithShutdownFlag makes readiness fail once the server starts draining, so
// load balancers stop routing new requests before connections close.
func (h *HealthHandler) WithShutdownFlag(isShuttingDown func() bool) *HealthHandler {
	if isShuttingDown != nil {
		h.isShuttingDown = isShuttingDown
	}
	return h
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Shutting down", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(cctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Dependencies unavailable", failed)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
