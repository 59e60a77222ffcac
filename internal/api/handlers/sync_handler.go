package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cornell-dti/o-week-android-sub000/internal/api/dto"
	syncdomain "github.com/cornell-dti/o-week-android-sub000/internal/domain/sync"
	"github.com/cornell-dti/o-week-android-sub000/internal/infrastructure/scheduler"
)

// SyncHandler handles manual feed sync triggers and status queries
type SyncHandler struct {
	runner     *scheduler.Runner
	reconciler *syncdomain.Reconciler
}

// NewSyncHandler creates a new sync handler instance
func NewSyncHandler(runner *scheduler.Runner, reconciler *syncdomain.Reconciler) *SyncHandler {
	return &SyncHandler{runner: runner, reconciler: reconciler}
}

// TriggerSync runs one fetch-and-reconcile cycle now.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	result, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrSyncInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, dto.SyncResultResponse{
			Applied: false,
			Version: h.reconciler.Version(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.SyncResultResponse{
		Applied:         true,
		Version:         result.Version,
		UpdatedSelected: len(result.UpdatedSelected),
		RemovedSelected: len(result.RemovedSelected),
	})
}

// Status reports the last-applied version marker and apply time.
func (h *SyncHandler) Status(c *gin.Context) {
	resp := dto.SyncStatusResponse{Version: h.reconciler.Version()}
	if applied := h.reconciler.LastApplied(); !applied.IsZero() {
		resp.LastApplied = &applied
	}
	c.JSON(http.StatusOK, resp)
}
