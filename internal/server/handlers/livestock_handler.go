package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/service/livestock"
)

// LivestockHandler exposes pond, stocking, biometry and mortality operations.
type LivestockHandler struct {
	svc    *livestock.Service
	logger *zap.Logger
}

// NewLivestockHandler constructs the HTTP handler adapter for livestock state.
func NewLivestockHandler(svc *livestock.Service, logger *zap.Logger) *LivestockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LivestockHandler{svc: svc, logger: logger}
}

type createPondRequest struct {
	Name        string `json:"name" binding:"required"`
	WarehouseID string `json:"warehouse_id" binding:"required"`
}

// CreatePond registers a production unit.
func (h *LivestockHandler) CreatePond(c *gin.Context) {
	var req createPondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid pond payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pond, err := h.svc.CreatePond(c.Request.Context(), req.Name, req.WarehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pond)
}

// GetPond returns a pond with its current population.
func (h *LivestockHandler) GetPond(c *gin.Context) {
	pond, err := h.svc.GetPond(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pond)
}

type stockPondRequest struct {
	Species        string          `json:"species" binding:"required"`
	Count          int64           `json:"count" binding:"required"`
	AvgWeightGrams decimal.Decimal `json:"avg_weight_grams"`
}

// StockPond creates the pond's ACTIVE batch.
func (h *LivestockHandler) StockPond(c *gin.Context) {
	var req stockPondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid stocking payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.svc.StockPond(c.Request.Context(), c.Param("id"), req.Species, req.Count, req.AvgWeightGrams)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

type biometryRequest struct {
	AvgWeightGrams decimal.Decimal `json:"avg_weight_grams" binding:"required"`
	SampleSize     int             `json:"sample_size" binding:"required"`
	Notes          string          `json:"notes"`
}

// RecordBiometry appends a growth sample.
func (h *LivestockHandler) RecordBiometry(c *gin.Context) {
	var req biometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid biometry payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sample, err := h.svc.RecordBiometry(c.Request.Context(), c.Param("id"), req.AvgWeightGrams, req.SampleSize, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

type mortalityRequest struct {
	DeadCount int64  `json:"dead_count" binding:"required"`
	Cause     string `json:"cause"`
}

// RecordMortality books a loss incident against the pond population.
func (h *LivestockHandler) RecordMortality(c *gin.Context) {
	var req mortalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid mortality payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, err := h.svc.RecordMortality(c.Request.Context(), c.Param("id"), req.DeadCount, req.Cause)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// Biomass returns the pond's estimated live mass in kilograms.
func (h *LivestockHandler) Biomass(c *gin.Context) {
	biomass, err := h.svc.EstimateBiomassKg(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pond_id": c.Param("id"), "biomass_kg": biomass})
}
