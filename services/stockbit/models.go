package stockbit

// WatchlistResponse represents the watchlist listing response
type WatchlistResponse struct {
	Data []WatchlistItem `json:"data"`
}

// WatchlistItem is one symbol on the user's watchlist
type WatchlistItem struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"name"`
	Exchange    string `json:"exchange"`
}

// MarketDetectorResponse represents the market-detector (broker summary) response
type MarketDetectorResponse struct {
	Data BrokerSummary `json:"data"`
}

// BrokerSummary aggregates broker order flow over the requested date range
type BrokerSummary struct {
	BrokersBuy  []BrokerAggregate `json:"brokers_buy"`
	BrokersSell []BrokerAggregate `json:"brokers_sell"`
}

// BrokerAggregate is one broker's accumulated buy or sell flow
type BrokerAggregate struct {
	BrokerCode string  `json:"broker_code"`
	NetLot     float64 `json:"netbs_lot"`
	AvgPrice   float64 `json:"netbs_avg_price"`
	Value      float64 `json:"netbs_value"`
}

// OrderbookResponse represents the order book preview response
type OrderbookResponse struct {
	Data Orderbook `json:"data"`
}

// Orderbook holds order book extremes for a symbol. ARA and ARB are the
// daily auto-reject bounds (best ask and best bid limits on IDX).
type Orderbook struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastprice"`
	PreviousClose float64 `json:"previous"`
	ARA           float64 `json:"ara"`
	ARB           float64 `json:"arb"`
	TotalBidLot   float64 `json:"total_bid_lot"`
	TotalOfferLot float64 `json:"total_offer_lot"`
}

// CompanyInfoResponse represents the company info response
type CompanyInfoResponse struct {
	Data CompanyInfo `json:"data"`
}

// CompanyInfo holds company and sector classification data
type CompanyInfo struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	SubSector string `json:"sub_sector"`
}

// DailySummaryResponse represents the historical daily summary response
type DailySummaryResponse struct {
	Data []DailyBar `json:"data"`
}

// DailyBar is one realized trading day for a symbol
type DailyBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
