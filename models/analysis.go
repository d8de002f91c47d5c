package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BandarAnalysis holds one day of bandarmology analysis for a symbol.
// Uniqueness is enforced on (date, symbol); re-running the batch for the
// same day overwrites the row instead of duplicating it.
type BandarAnalysis struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Date           time.Time        `gorm:"type:date;uniqueIndex:idx_date_symbol" json:"date"`
	Symbol         string           `gorm:"size:10;uniqueIndex:idx_date_symbol;not null" json:"symbol"`
	CompanyName    string           `json:"company_name"`
	Sector         string           `json:"sector"`
	BrokerCode     string           `gorm:"size:4" json:"broker_code"`
	BrokerLot      decimal.Decimal  `gorm:"type:decimal(20,2)" json:"broker_lot"`
	BrokerAvgPrice decimal.Decimal  `gorm:"type:decimal(15,2)" json:"broker_avg_price"`
	ClosePrice     decimal.Decimal  `gorm:"type:decimal(15,2)" json:"close_price"`
	BestBid        decimal.Decimal  `gorm:"type:decimal(15,2)" json:"best_bid"`
	BestOffer      decimal.Decimal  `gorm:"type:decimal(15,2)" json:"best_offer"`
	TotalBidLot    decimal.Decimal  `gorm:"type:decimal(20,2)" json:"total_bid_lot"`
	TotalOfferLot  decimal.Decimal  `gorm:"type:decimal(20,2)" json:"total_offer_lot"`
	TickSize       decimal.Decimal  `gorm:"type:decimal(10,2)" json:"tick_size"`
	FloatRatio     decimal.Decimal  `gorm:"type:decimal(15,6)" json:"float_ratio"`
	TargetBuy      decimal.Decimal  `gorm:"type:decimal(15,2)" json:"target_buy"`
	TargetSell     decimal.Decimal  `gorm:"type:decimal(15,2)" json:"target_sell"`
	RealizedPrice  *decimal.Decimal `gorm:"type:decimal(15,2)" json:"realized_price"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Story is a generated narrative describing an analysis record, rendered
// once per (date, symbol) for the dashboard's story panel.
type Story struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_story_date_symbol" json:"date"`
	Symbol    string    `gorm:"size:10;uniqueIndex:idx_story_date_symbol;not null" json:"symbol"`
	Headline  string    `json:"headline"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobLog records one run of a background job
type JobLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	JobName      string     `gorm:"index" json:"job_name"`
	Status       string     `json:"status"` // running, success, failed
	Processed    int        `json:"processed"`
	Failed       int        `json:"failed"`
	Errors       string     `gorm:"type:text" json:"errors"`
	TokenExpired bool       `json:"token_expired"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

// MigrateAnalysisModels runs database migrations for analysis-related models
func MigrateAnalysisModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&BandarAnalysis{},
		&Story{},
		&JobLog{},
	)
}
