package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/service/feeding"
)

// FeedingHandler exposes the feeding orchestrator over HTTP.
type FeedingHandler struct {
	svc    *feeding.Service
	logger *zap.Logger
}

// NewFeedingHandler constructs the HTTP handler adapter for feedings.
func NewFeedingHandler(svc *feeding.Service, logger *zap.Logger) *FeedingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedingHandler{svc: svc, logger: logger}
}

type feedingRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	AmountKg    decimal.Decimal `json:"amount_kg" binding:"required"`
	Notes       string          `json:"notes"`
}

// RecordFeeding deducts stock for a feeding. The warehouse defaults to the
// pond's assigned one when omitted.
func (h *FeedingHandler) RecordFeeding(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req feedingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid feeding payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, err := h.svc.RecordFeeding(c.Request.Context(), c.Param("id"), req.WarehouseID, req.AmountKg, actor, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// Ration returns the dosing engine's recommendation for the pond, which the
// UI uses to pre-fill the feeding form.
func (h *FeedingHandler) Ration(c *gin.Context) {
	ration, err := h.svc.RecommendedRation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ration)
}
