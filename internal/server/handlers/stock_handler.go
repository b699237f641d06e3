package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/internal/service/ledger"
)

// StockHandler exposes warehouse and ledger operations over HTTP.
type StockHandler struct {
	store  repository.WarehouseStore
	ledger *ledger.Service
	logger *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter for stock operations.
func NewStockHandler(store repository.WarehouseStore, ledgerSvc *ledger.Service, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{store: store, ledger: ledgerSvc, logger: logger}
}

type createWarehouseRequest struct {
	Name            string          `json:"name" binding:"required"`
	Unit            string          `json:"unit"`
	Kind            string          `json:"kind" binding:"required"`
	ParentID        string          `json:"parent_id"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity"`
}

// CreateWarehouse registers a stock location. An opening quantity is booked
// through the ledger as an ADJUSTMENT so the audit trail starts truthful.
func (h *StockHandler) CreateWarehouse(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req createWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid warehouse payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	kind := models.WarehouseKind(req.Kind)
	if kind != models.WarehouseGlobal && kind != models.WarehouseSatellite {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be GLOBAL or SATELLITE"})
		return
	}
	if kind == models.WarehouseGlobal && req.ParentID != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a GLOBAL warehouse has no parent"})
		return
	}
	if req.OpeningQuantity.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opening quantity must not be negative"})
		return
	}

	unit := req.Unit
	if unit == "" {
		unit = "kg"
	}

	warehouse := models.Warehouse{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Unit:      unit,
		Quantity:  decimal.Zero,
		Kind:      kind,
		ParentID:  req.ParentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateWarehouse(c.Request.Context(), warehouse); err != nil {
		h.logger.Error("failed creating warehouse", zap.Error(err))
		respondError(c, err)
		return
	}

	if req.OpeningQuantity.IsPositive() {
		if _, err := h.ledger.Adjust(c.Request.Context(), warehouse.ID, req.OpeningQuantity, actor, "opening stock"); err != nil {
			h.logger.Error("failed booking opening stock", zap.Error(err))
			respondError(c, err)
			return
		}
		warehouse.Quantity = req.OpeningQuantity
	}

	c.JSON(http.StatusCreated, warehouse)
}

// GetWarehouse returns a single warehouse with its current quantity.
func (h *StockHandler) GetWarehouse(c *gin.Context) {
	warehouse, err := h.store.GetWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

// ListWarehouses returns all stock locations.
func (h *StockHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.store.ListWarehouses(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing warehouses", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, warehouses)
}

type transferRequest struct {
	SourceID string          `json:"source_id" binding:"required"`
	DestID   string          `json:"dest_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// Transfer moves stock between two warehouses.
func (h *StockHandler) Transfer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid transfer payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := h.ledger.Transfer(c.Request.Context(), req.SourceID, req.DestID, req.Amount, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"required"`
	Note  string          `json:"note"`
}

// Adjust books a manual stock correction on a warehouse.
func (h *StockHandler) Adjust(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid adjustment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := h.ledger.Adjust(c.Request.Context(), c.Param("id"), req.Delta, actor, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// History pages through a warehouse's movements, newest first. Query params:
// limit (default 50) and before (sequence cursor from a previous page).
func (h *StockHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	before, _ := strconv.ParseInt(c.DefaultQuery("before", "0"), 10, 64)

	movements, err := h.ledger.History(c.Request.Context(), c.Param("id"), limit, before)
	if err != nil {
		respondError(c, err)
		return
	}

	next := int64(0)
	if len(movements) > 0 {
		next = movements[len(movements)-1].Seq
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "next_before": next})
}
