package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rizalgs/adimology/models"
	"github.com/rizalgs/adimology/services/analysis"
	"github.com/rizalgs/adimology/services/archive"
	"github.com/rizalgs/adimology/services/stockbit"
	"github.com/rizalgs/adimology/services/story"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JobName identifies the daily analysis job in job logs
const JobName = "daily-bandar-analysis"

// DetectorLookbackDays is the accumulation window the market detector is
// queried over.
const DetectorLookbackDays = 30

// Runner executes the daily watchlist analysis batch
type Runner struct {
	db        *gorm.DB
	client    *stockbit.Client
	store     *analysis.Store
	stories   *story.Service
	archive   *archive.Service // nil when archiving is not configured
	watchlist string

	mu      sync.Mutex
	running bool
}

// NewRunner creates a batch runner. archiveSvc may be nil.
func NewRunner(db *gorm.DB, client *stockbit.Client, archiveSvc *archive.Service, watchlistGroup string) *Runner {
	return &Runner{
		db:        db,
		client:    client,
		store:     analysis.NewStore(db),
		stories:   story.NewService(db),
		archive:   archiveSvc,
		watchlist: watchlistGroup,
	}
}

// RunResult summarizes one batch run
type RunResult struct {
	JobLogID  uint     `json:"job_log_id"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
	Duration  string   `json:"duration"`
}

// IsRunning reports whether a batch is in progress
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run iterates the watchlist, analyzes every symbol and upserts the results.
// Per-symbol failures are recorded and do not abort the remaining batch; a
// watchlist failure marks the whole job failed.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, errors.New("batch already in progress")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	startTime := time.Now()
	jobLog := models.JobLog{
		JobName:   JobName,
		Status:    "running",
		StartedAt: startTime,
	}
	if err := r.db.Create(&jobLog).Error; err != nil {
		return nil, fmt.Errorf("failed to create job log: %w", err)
	}

	result := &RunResult{JobLogID: jobLog.ID, Errors: []string{}}

	items, err := r.client.Watchlist(ctx, r.watchlist)
	if err != nil {
		r.finalize(&jobLog, "failed", result, err)
		result.Duration = time.Since(startTime).String()
		return result, fmt.Errorf("failed to fetch watchlist: %w", err)
	}

	today := time.Now()
	for _, item := range items {
		written, err := r.processSymbol(ctx, today, item)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Symbol, err))
			log.Printf("Batch: symbol %s failed: %v", item.Symbol, err)
			continue
		}
		if !written {
			result.Skipped++
			continue
		}
		result.Processed++
	}

	r.finalize(&jobLog, "success", result, nil)
	result.Duration = time.Since(startTime).String()
	log.Printf("Batch completed: processed=%d failed=%d skipped=%d duration=%s",
		result.Processed, result.Failed, result.Skipped, result.Duration)
	return result, nil
}

// processSymbol fetches per-symbol data, computes targets and upserts the
// analysis row. Returns false when the symbol was skipped for lack of broker
// data.
func (r *Runner) processSymbol(ctx context.Context, date time.Time, item stockbit.WatchlistItem) (bool, error) {
	from := date.AddDate(0, 0, -DetectorLookbackDays)

	// Market data, order book and company info are independent requests
	var (
		wg        sync.WaitGroup
		broker    *stockbit.BrokerAggregate
		summary   *stockbit.BrokerSummary
		orderbook *stockbit.Orderbook
		info      *stockbit.CompanyInfo
		brokerErr error
		obErr     error
		infoErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		summary, broker, brokerErr = r.leadingBroker(ctx, item.Symbol, from, date)
	}()
	go func() {
		defer wg.Done()
		orderbook, obErr = r.client.Orderbook(ctx, item.Symbol)
	}()
	go func() {
		defer wg.Done()
		info, infoErr = r.client.CompanyInfo(ctx, item.Symbol)
	}()
	wg.Wait()

	if brokerErr != nil {
		return false, brokerErr
	}
	if obErr != nil {
		return false, obErr
	}
	if broker == nil {
		log.Printf("Batch: no broker data for %s, skipping", item.Symbol)
		return false, nil
	}

	companyName := item.CompanyName
	sector := ""
	if infoErr != nil {
		// Sector data is decorative; a miss should not drop the symbol
		log.Printf("Batch: company info for %s unavailable: %v", item.Symbol, infoErr)
	} else {
		companyName = info.Name
		sector = info.Sector
	}

	targets := analysis.ComputeTargets(analysis.TargetInput{
		BrokerAvgPrice: broker.AvgPrice,
		BrokerLot:      broker.NetLot,
		BestOffer:      orderbook.ARA,
		BestBid:        orderbook.ARB,
		TotalBidLot:    orderbook.TotalBidLot,
		TotalOfferLot:  orderbook.TotalOfferLot,
		LastPrice:      orderbook.LastPrice,
	})

	record := models.BandarAnalysis{
		Date:           dateOnly(date),
		Symbol:         item.Symbol,
		CompanyName:    companyName,
		Sector:         sector,
		BrokerCode:     broker.BrokerCode,
		BrokerLot:      decimal.NewFromFloat(broker.NetLot),
		BrokerAvgPrice: decimal.NewFromFloat(broker.AvgPrice),
		ClosePrice:     decimal.NewFromFloat(orderbook.LastPrice),
		BestBid:        decimal.NewFromFloat(orderbook.ARB),
		BestOffer:      decimal.NewFromFloat(orderbook.ARA),
		TotalBidLot:    decimal.NewFromFloat(orderbook.TotalBidLot),
		TotalOfferLot:  decimal.NewFromFloat(orderbook.TotalOfferLot),
		TickSize:       decimal.NewFromFloat(targets.TickSize),
		FloatRatio:     decimal.NewFromFloat(targets.FloatRatio),
		TargetBuy:      decimal.NewFromFloat(targets.TargetBuy),
		TargetSell:     decimal.NewFromFloat(targets.TargetSell),
	}

	if err := r.store.Upsert(&record); err != nil {
		return false, err
	}

	if err := r.stories.Generate(&record); err != nil {
		log.Printf("Batch: story generation for %s failed: %v", item.Symbol, err)
	}

	if r.archive != nil {
		if err := r.archive.SaveDetectorSnapshot(ctx, item.Symbol, dateOnly(date), summary); err != nil {
			log.Printf("Batch: snapshot archive for %s failed: %v", item.Symbol, err)
		}
	}

	r.backfillRealized(ctx, item.Symbol, dateOnly(date))

	return true, nil
}

// leadingBroker returns the top accumulating broker for the symbol, or nil
// without error when the detector has no broker data. The market proxy
// handler calls MarketDetector directly and surfaces the same condition as
// an error.
func (r *Runner) leadingBroker(ctx context.Context, symbol string, from, to time.Time) (*stockbit.BrokerSummary, *stockbit.BrokerAggregate, error) {
	summary, err := r.client.MarketDetector(ctx, symbol, from, to)
	if err != nil {
		if errors.Is(err, stockbit.ErrNoBrokerData) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	top := summary.BrokersBuy[0]
	for _, b := range summary.BrokersBuy[1:] {
		if b.NetLot > top.NetLot {
			top = b
		}
	}
	return summary, &top, nil
}

// backfillRealized amends the most recent prior record with its realized
// close price. Best effort: failures are logged, never propagated.
func (r *Runner) backfillRealized(ctx context.Context, symbol string, today time.Time) {
	prior, err := r.store.LatestBefore(symbol, today)
	if err != nil {
		log.Printf("Batch: backfill lookup for %s failed: %v", symbol, err)
		return
	}
	if prior == nil {
		return
	}

	bar, err := r.client.DailySummary(ctx, symbol, prior.Date)
	if err != nil {
		log.Printf("Batch: daily summary for %s on %s failed: %v",
			symbol, prior.Date.Format("2006-01-02"), err)
		return
	}

	if err := r.store.SetRealizedPrice(prior.ID, decimal.NewFromFloat(bar.Close)); err != nil {
		log.Printf("Batch: realized price update for %s failed: %v", symbol, err)
	}
}

// finalize closes out the job log. Token problems are recognized by
// substring match on the root cause, mirroring how the dashboard decides
// whether to show the re-login prompt.
func (r *Runner) finalize(jobLog *models.JobLog, status string, result *RunResult, rootErr error) {
	now := time.Now()
	jobLog.Status = status
	jobLog.Processed = result.Processed
	jobLog.Failed = result.Failed
	jobLog.FinishedAt = &now

	allErrors := result.Errors
	if rootErr != nil {
		allErrors = append(allErrors, rootErr.Error())
	}
	jobLog.Errors = strings.Join(allErrors, "; ")
	jobLog.TokenExpired = looksLikeTokenError(jobLog.Errors)

	if err := r.db.Save(jobLog).Error; err != nil {
		log.Printf("Batch: failed to update job log %d: %v", jobLog.ID, err)
	}
}

// looksLikeTokenError guesses whether a failure was caused by an expired or
// missing bearer token
func looksLikeTokenError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "token") || strings.Contains(lower, "unauthorized")
}

// dateOnly truncates a timestamp to its calendar date
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
