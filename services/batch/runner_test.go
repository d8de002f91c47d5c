package batch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rizalgs/adimology/models"
	"github.com/rizalgs/adimology/services/analysis"
	"github.com/rizalgs/adimology/services/stockbit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubStockbit fakes the upstream API for a batch run. Symbols listed in
// noBrokerData get an empty detector payload, symbols in brokenOrderbook get
// a 500 from the order book endpoint.
type stubStockbit struct {
	symbols         []string
	noBrokerData    map[string]bool
	brokenOrderbook map[string]bool
	brokenCompany   map[string]bool
	watchlistStatus int
	dailyClose      float64
}

func (s *stubStockbit) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasPrefix(path, "/findata-view/watchlist/"):
			if s.watchlistStatus != 0 {
				w.WriteHeader(s.watchlistStatus)
				return
			}
			items := make([]string, 0, len(s.symbols))
			for _, sym := range s.symbols {
				items = append(items, fmt.Sprintf(`{"symbol":%q,"name":"%s Tbk","exchange":"IDX"}`, sym, sym))
			}
			fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(items, ","))

		case strings.HasPrefix(path, "/market-detector/"):
			symbol := strings.TrimPrefix(path, "/market-detector/")
			if s.noBrokerData[symbol] {
				fmt.Fprint(w, `{"data":{"brokers_buy":[],"brokers_sell":[]}}`)
				return
			}
			fmt.Fprint(w, `{"data":{
				"brokers_buy":[
					{"broker_code":"PD","netbs_lot":3000,"netbs_avg_price":995,"netbs_value":298500000},
					{"broker_code":"YP","netbs_lot":8000,"netbs_avg_price":1000,"netbs_value":800000000}
				],
				"brokers_sell":[{"broker_code":"CC","netbs_lot":-4000,"netbs_avg_price":1005,"netbs_value":-402000000}]
			}}`)

		case strings.HasPrefix(path, "/orderbook/preview/"):
			symbol := strings.TrimPrefix(path, "/orderbook/preview/")
			if s.brokenOrderbook[symbol] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `{"data":{
				"symbol":%q,"lastprice":1000,"previous":990,
				"ara":1240,"arb":780,"total_bid_lot":12000,"total_offer_lot":4000
			}}`, symbol)

		case strings.HasPrefix(path, "/company/"):
			symbol := strings.TrimSuffix(strings.TrimPrefix(path, "/company/"), "/info")
			if s.brokenCompany[symbol] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `{"data":{"symbol":%q,"name":"PT %s Sejahtera","sector":"Finance","sub_sector":"Banks"}}`, symbol, symbol)

		case strings.HasPrefix(path, "/findata/daily/"):
			fmt.Fprintf(w, `{"data":[{"date":%q,"open":1000,"high":1020,"low":990,"close":%g,"volume":500000}]}`,
				r.URL.Query().Get("date"), s.dailyClose)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newBatchEnv(t *testing.T, stub *stubStockbit) (*Runner, *gorm.DB) {
	t.Helper()

	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateAnalysisModels(db))
	require.NoError(t, models.MigrateSessionModels(db))

	tokens := stockbit.NewTokenProvider(db, "test-token")
	client := stockbit.NewClient(server.URL, tokens)
	return NewRunner(db, client, nil, "test-group"), db
}

func loadJobLog(t *testing.T, db *gorm.DB, id uint) models.JobLog {
	t.Helper()
	var jobLog models.JobLog
	require.NoError(t, db.First(&jobLog, id).Error)
	return jobLog
}

func TestRunProcessesWatchlist(t *testing.T) {
	stub := &stubStockbit{symbols: []string{"BBCA", "GOTO"}, dailyClose: 1010}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 0, result.Failed)
	require.Equal(t, 0, result.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.BandarAnalysis{}).Count(&count).Error)
	require.Equal(t, int64(2), count)

	// YP has the larger accumulated net lot and must win
	var record models.BandarAnalysis
	require.NoError(t, db.Where("symbol = ?", "BBCA").First(&record).Error)
	require.Equal(t, "YP", record.BrokerCode)
	require.Equal(t, "PT BBCA Sejahtera", record.CompanyName)
	require.Equal(t, "Finance", record.Sector)
	require.False(t, record.TargetBuy.IsZero())
	require.False(t, record.TargetSell.IsZero())

	// One story per processed symbol
	require.NoError(t, db.Model(&models.Story{}).Count(&count).Error)
	require.Equal(t, int64(2), count)

	jobLog := loadJobLog(t, db, result.JobLogID)
	require.Equal(t, "success", jobLog.Status)
	require.Equal(t, 2, jobLog.Processed)
	require.False(t, jobLog.TokenExpired)
	require.NotNil(t, jobLog.FinishedAt)
}

func TestRunSkipsSymbolsWithoutBrokerData(t *testing.T) {
	stub := &stubStockbit{
		symbols:      []string{"BBCA", "SLEEPY"},
		noBrokerData: map[string]bool{"SLEEPY": true},
	}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 0, result.Failed)

	var count int64
	require.NoError(t, db.Model(&models.BandarAnalysis{}).Where("symbol = ?", "SLEEPY").Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestRunToleratesSymbolFailure(t *testing.T) {
	stub := &stubStockbit{
		symbols:         []string{"BROKEN", "BBCA"},
		brokenOrderbook: map[string]bool{"BROKEN": true},
	}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "BROKEN")

	// The healthy symbol still made it through
	var count int64
	require.NoError(t, db.Model(&models.BandarAnalysis{}).Where("symbol = ?", "BBCA").Count(&count).Error)
	require.Equal(t, int64(1), count)

	jobLog := loadJobLog(t, db, result.JobLogID)
	require.Equal(t, "success", jobLog.Status)
	require.Equal(t, 1, jobLog.Failed)
	require.Contains(t, jobLog.Errors, "BROKEN")
}

func TestRunDegradesOnMissingCompanyInfo(t *testing.T) {
	stub := &stubStockbit{
		symbols:       []string{"BBCA"},
		brokenCompany: map[string]bool{"BBCA": true},
	}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)

	// Falls back to the watchlist name, sector stays empty
	var record models.BandarAnalysis
	require.NoError(t, db.Where("symbol = ?", "BBCA").First(&record).Error)
	require.Equal(t, "BBCA Tbk", record.CompanyName)
	require.Empty(t, record.Sector)
}

func TestRunWatchlistFailureMarksJobFailed(t *testing.T) {
	stub := &stubStockbit{watchlistStatus: http.StatusInternalServerError}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)

	jobLog := loadJobLog(t, db, result.JobLogID)
	require.Equal(t, "failed", jobLog.Status)
	require.False(t, jobLog.TokenExpired)
}

func TestRunExpiredTokenFlagged(t *testing.T) {
	stub := &stubStockbit{watchlistStatus: http.StatusUnauthorized}
	runner, db := newBatchEnv(t, stub)

	result, err := runner.Run(context.Background())
	require.Error(t, err)

	jobLog := loadJobLog(t, db, result.JobLogID)
	require.Equal(t, "failed", jobLog.Status)
	require.True(t, jobLog.TokenExpired)
}

func TestRunIdempotent(t *testing.T) {
	stub := &stubStockbit{symbols: []string{"BBCA"}}
	runner, db := newBatchEnv(t, stub)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.BandarAnalysis{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRunBackfillsRealizedPrice(t *testing.T) {
	stub := &stubStockbit{symbols: []string{"BBCA"}, dailyClose: 1035}
	runner, db := newBatchEnv(t, stub)

	// A record from a previous run that never got its realized close
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	prior := models.BandarAnalysis{
		Date:       time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC),
		Symbol:     "BBCA",
		BrokerCode: "YP",
		TargetBuy:  decimal.NewFromInt(980),
		TargetSell: decimal.NewFromInt(1100),
	}
	require.NoError(t, analysis.NewStore(db).Upsert(&prior))

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	var updated models.BandarAnalysis
	require.NoError(t, db.First(&updated, prior.ID).Error)
	require.NotNil(t, updated.RealizedPrice)
	require.True(t, updated.RealizedPrice.Equal(decimal.NewFromFloat(1035)))
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	stub := &stubStockbit{symbols: []string{"BBCA"}}
	runner, _ := newBatchEnv(t, stub)

	runner.mu.Lock()
	runner.running = true
	runner.mu.Unlock()

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "in progress")
	require.True(t, runner.IsRunning())
}
