package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
	sheetsrepo "github.com/mamadbah2/aquafarm/internal/repository/sheets"
)

const (
	dateLayout       = "2006-01-02"
	reportWriteRange = "DailyReports!A:G"
)

// Store is the persistence surface reporting reads from and writes to.
type Store interface {
	repository.WarehouseStore
	repository.MovementLog
	repository.LivestockStore
	repository.ReportStore
}

// Service aggregates the day's stock and livestock activity into a
// DailyReport, persists it, and optionally exports a row to Google Sheets
// for the farm's shared dashboards.
type Service struct {
	store             Store
	exporter          sheetsrepo.Repository
	lowStockThreshold decimal.Decimal
	logger            *zap.Logger
	now               func() time.Time
}

// NewService wires a reporting service. exporter may be nil, which disables
// the spreadsheet export.
func NewService(store Store, exporter sheetsrepo.Repository, lowStockThreshold decimal.Decimal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:             store,
		exporter:          exporter,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

// GenerateDailyReport builds and persists the report for the calendar day
// (UTC) containing the given moment.
func (s *Service) GenerateDailyReport(ctx context.Context, at time.Time) (models.DailyReport, error) {
	dayStart := at.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	movements, err := s.store.MovementsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load movements: %w", err)
	}

	consumed := decimal.Zero
	transferred := decimal.Zero
	for _, m := range movements {
		switch m.Kind {
		case models.MovementConsumption:
			consumed = consumed.Add(m.Amount)
		case models.MovementTransfer:
			transferred = transferred.Add(m.Amount)
		}
	}

	warehouses, err := s.store.ListWarehouses(ctx)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("list warehouses: %w", err)
	}
	totalStock := decimal.Zero
	lowStock := 0
	for _, w := range warehouses {
		totalStock = totalStock.Add(w.Quantity)
		if w.Quantity.LessThanOrEqual(s.lowStockThreshold) {
			lowStock++
		}
	}

	totalBiomass, err := s.totalBiomassKg(ctx)
	if err != nil {
		return models.DailyReport{}, err
	}

	mortality, err := s.store.MortalityBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load mortality: %w", err)
	}

	report := models.DailyReport{
		Date:             dayStart,
		TotalStockKg:     totalStock.String(),
		FeedConsumedKg:   consumed.String(),
		TransferredKg:    transferred.String(),
		TotalBiomassKg:   totalBiomass.String(),
		Mortality:        mortality,
		LowStockWarnings: lowStock,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return models.DailyReport{}, fmt.Errorf("save daily report: %w", err)
	}

	if s.exporter != nil {
		row := []interface{}{
			report.Date.Format(dateLayout),
			report.TotalStockKg,
			report.FeedConsumedKg,
			report.TransferredKg,
			report.TotalBiomassKg,
			report.Mortality,
			report.LowStockWarnings,
		}
		if err := s.exporter.WriteRow(ctx, reportWriteRange, row); err != nil {
			// The report is already durable in the store; the spreadsheet is
			// a convenience copy.
			s.logger.Error("failed to export daily report row", zap.Error(err))
		}
	}

	s.logger.Info("daily report generated",
		zap.String("date", report.Date.Format(dateLayout)),
		zap.String("total_stock_kg", report.TotalStockKg),
		zap.String("feed_consumed_kg", report.FeedConsumedKg),
		zap.Int64("mortality", report.Mortality))
	return report, nil
}

func (s *Service) totalBiomassKg(ctx context.Context) (decimal.Decimal, error) {
	ponds, err := s.store.ListPonds(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list ponds: %w", err)
	}

	total := decimal.Zero
	for _, pond := range ponds {
		batch, err := s.store.ActiveBatch(ctx, pond.ID)
		if err != nil {
			// Ponds between batches contribute nothing.
			continue
		}
		total = total.Add(batch.BiomassKg())
	}
	return total, nil
}
