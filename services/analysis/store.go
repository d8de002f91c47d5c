package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/rizalgs/adimology/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists bandar analysis records
type Store struct {
	db *gorm.DB
}

// NewStore creates an analysis store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Upsert writes an analysis record, overwriting any existing row for the
// same (date, symbol).
func (s *Store) Upsert(record *models.BandarAnalysis) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "sector", "broker_code", "broker_lot",
			"broker_avg_price", "close_price", "best_bid", "best_offer",
			"total_bid_lot", "total_offer_lot", "tick_size", "float_ratio",
			"target_buy", "target_sell", "updated_at",
		}),
	}).Create(record).Error

	if err != nil {
		return fmt.Errorf("failed to upsert analysis for %s: %w", record.Symbol, err)
	}
	return nil
}

// AnalysisListResult contains paginated analysis rows
type AnalysisListResult struct {
	Records []models.BandarAnalysis `json:"records"`
	Total   int64                   `json:"total"`
	Page    int                     `json:"page"`
	Limit   int                     `json:"limit"`
}

// ListByDate returns analysis records for a trading date, paginated
func (s *Store) ListByDate(date time.Time, page, limit int) (*AnalysisListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.Model(&models.BandarAnalysis{}).Where("date = ?", date.Format("2006-01-02"))

	var total int64
	query.Count(&total)

	var records []models.BandarAnalysis
	err := query.Order("symbol ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return &AnalysisListResult{
		Records: records,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

// HistoryBySymbol returns the most recent analysis rows for one symbol
func (s *Store) HistoryBySymbol(symbol string, limit int) ([]models.BandarAnalysis, error) {
	if limit < 1 || limit > 200 {
		limit = 30
	}

	var records []models.BandarAnalysis
	err := s.db.Where("symbol = ?", symbol).
		Order("date DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}
	return records, nil
}

// LatestBefore returns the most recent record for a symbol strictly before
// the given date that has no realized price yet. Returns nil when there is
// nothing to backfill.
func (s *Store) LatestBefore(symbol string, date time.Time) (*models.BandarAnalysis, error) {
	var record models.BandarAnalysis
	err := s.db.Where("symbol = ? AND date < ? AND realized_price IS NULL",
		symbol, date.Format("2006-01-02")).
		Order("date DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// SetRealizedPrice amends a record with the realized close price
func (s *Store) SetRealizedPrice(id uint, price decimal.Decimal) error {
	return s.db.Model(&models.BandarAnalysis{}).
		Where("id = ?", id).
		Update("realized_price", price).Error
}
