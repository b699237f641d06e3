package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/pkg/clients/webhook"
)

// Service scans warehouse stock levels and pushes webhook notifications when
// a warehouse drops under the configured threshold. A nil client disables
// delivery; the scan still runs so reporting can count warnings.
type Service struct {
	store     repository.WarehouseStore
	client    webhook.Client
	threshold decimal.Decimal
	logger    *zap.Logger
}

// NewService wires an alerts service instance.
func NewService(store repository.WarehouseStore, client webhook.Client, threshold decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		client:    client,
		threshold: threshold,
		logger:    logger,
	}
}

// ScanLowStock returns the ids of warehouses at or under the threshold and
// notifies the webhook for each. Delivery failures are logged, not fatal:
// the next scheduled scan retries naturally.
func (s *Service) ScanLowStock(ctx context.Context) ([]string, error) {
	warehouses, err := s.store.ListWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}

	var low []string
	for _, w := range warehouses {
		if w.Quantity.GreaterThan(s.threshold) {
			continue
		}
		low = append(low, w.ID)

		s.logger.Warn("warehouse under low-stock threshold",
			zap.String("warehouse", w.ID),
			zap.String("name", w.Name),
			zap.String("quantity", w.Quantity.String()),
			zap.String("threshold", s.threshold.String()))

		if s.client == nil {
			continue
		}

		notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := s.client.SendNotification(notifyCtx, webhook.Notification{
			Title:   "Low feed stock",
			Message: fmt.Sprintf("%s holds %s %s (threshold %s). Plan a replenishment transfer.", w.Name, w.Quantity, w.Unit, s.threshold),
			Level:   "warning",
		})
		cancel()
		if err != nil {
			s.logger.Error("failed to deliver low-stock notification",
				zap.String("warehouse", w.ID), zap.Error(err))
		}
	}

	return low, nil
}
