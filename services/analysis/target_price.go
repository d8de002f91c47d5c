package analysis

import "math"

// TargetInput holds the order-flow statistics a target price is derived from
type TargetInput struct {
	BrokerAvgPrice float64 // average accumulation price of the leading broker
	BrokerLot      float64 // broker accumulated lot volume
	BestOffer      float64 // best ask price (ARA bound)
	BestBid        float64 // best bid price (ARB bound)
	TotalBidLot    float64
	TotalOfferLot  float64
	LastPrice      float64
}

// TargetResult holds the derived metrics
type TargetResult struct {
	TickSize    float64
	AvgOrderLot float64 // average of total bid and offer lots
	FloatRatio  float64 // broker lots relative to the average order book side
	TargetBuy   float64
	TargetSell  float64
}

// Target buy sits slightly under the broker's average accumulation price,
// target sell adds a margin that widens with the broker's share of the
// visible order book.
const (
	buyDiscount   = 0.02
	baseMargin    = 0.05
	floatMarginUp = 0.05
)

// TickSize returns the IDX price fraction for a given price level
func TickSize(price float64) float64 {
	switch {
	case price <= 0:
		return 0
	case price < 200:
		return 1
	case price < 500:
		return 2
	case price < 2000:
		return 5
	case price < 5000:
		return 10
	default:
		return 25
	}
}

// ComputeTargets derives target buy/sell prices from broker order-flow
// statistics. Pure arithmetic: the same input always yields the same output.
// Zero denominators degrade to zero ratios instead of failing.
func ComputeTargets(in TargetInput) TargetResult {
	result := TargetResult{
		TickSize:    TickSize(in.LastPrice),
		AvgOrderLot: (in.TotalBidLot + in.TotalOfferLot) / 2,
	}

	if result.AvgOrderLot > 0 {
		result.FloatRatio = in.BrokerLot / result.AvgOrderLot
	}

	if in.BrokerAvgPrice <= 0 || result.TickSize <= 0 {
		return result
	}

	margin := baseMargin + floatMarginUp*math.Min(result.FloatRatio, 1)

	result.TargetBuy = clamp(snapToTick(in.BrokerAvgPrice*(1-buyDiscount), result.TickSize), in.BestBid, in.BestOffer)
	result.TargetSell = clamp(snapToTick(in.BrokerAvgPrice*(1+margin), result.TickSize), in.BestBid, in.BestOffer)

	return result
}

// snapToTick rounds a price down onto the tick grid
func snapToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Floor(price/tick) * tick
}

// clamp bounds a price into [low, high]; zero bounds are treated as absent
func clamp(price, low, high float64) float64 {
	if low > 0 && price < low {
		return low
	}
	if high > 0 && price > high {
		return high
	}
	return price
}
