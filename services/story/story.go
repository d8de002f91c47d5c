package story

import (
	"fmt"

	"github.com/rizalgs/adimology/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service generates and persists narrative stories for analysis records
type Service struct {
	db *gorm.DB
}

// NewService creates a story service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Generate renders a story for an analysis record and upserts it on
// (date, symbol).
func (s *Service) Generate(record *models.BandarAnalysis) error {
	story := models.Story{
		Date:     record.Date,
		Symbol:   record.Symbol,
		Headline: headline(record),
		Body:     body(record),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"headline", "body", "updated_at"}),
	}).Create(&story).Error

	if err != nil {
		return fmt.Errorf("failed to upsert story for %s: %w", record.Symbol, err)
	}
	return nil
}

// List returns recent stories, optionally filtered by symbol
func (s *Service) List(symbol string, limit int) ([]models.Story, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Story{})
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var stories []models.Story
	if err := query.Order("date DESC, symbol ASC").Limit(limit).Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func headline(r *models.BandarAnalysis) string {
	return fmt.Sprintf("%s: akumulasi %s di rata-rata %s", r.Symbol, r.BrokerCode, r.BrokerAvgPrice.StringFixed(0))
}

func body(r *models.BandarAnalysis) string {
	return fmt.Sprintf(
		"Broker %s mengakumulasi %s dengan total %s lot pada harga rata-rata %s. "+
			"Harga penutupan %s. Target beli di %s, target jual di %s.",
		r.BrokerCode, r.Symbol, r.BrokerLot.StringFixed(0), r.BrokerAvgPrice.StringFixed(0),
		r.ClosePrice.StringFixed(0), r.TargetBuy.StringFixed(0), r.TargetSell.StringFixed(0),
	)
}
