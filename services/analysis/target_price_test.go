package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickSize(t *testing.T) {
	testCases := []struct {
		desc     string
		price    float64
		expected float64
	}{
		{"zero price", 0, 0},
		{"negative price", -100, 0},
		{"penny stock", 50, 1},
		{"below first boundary", 199, 1},
		{"at first boundary", 200, 2},
		{"below second boundary", 499, 2},
		{"at second boundary", 500, 5},
		{"below third boundary", 1999, 5},
		{"at third boundary", 2000, 10},
		{"below fourth boundary", 4999, 10},
		{"at fourth boundary", 5000, 25},
		{"blue chip", 9100, 25},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, TickSize(tc.price))
		})
	}
}

func TestComputeTargetsBasic(t *testing.T) {
	in := TargetInput{
		BrokerAvgPrice: 1000,
		BrokerLot:      5000,
		BestBid:        900,
		BestOffer:      1200,
		TotalBidLot:    6000,
		TotalOfferLot:  4000,
		LastPrice:      1000,
	}

	result := ComputeTargets(in)

	assert.Equal(t, 5.0, result.TickSize)
	assert.Equal(t, 5000.0, result.AvgOrderLot)
	assert.Equal(t, 1.0, result.FloatRatio)

	// 2% under the accumulation price, snapped to the tick grid
	assert.Equal(t, 980.0, result.TargetBuy)
	// full 10% margin since the broker holds the whole average book side
	assert.Equal(t, 1100.0, result.TargetSell)
}

func TestComputeTargetsDeterministic(t *testing.T) {
	in := TargetInput{
		BrokerAvgPrice: 1515,
		BrokerLot:      1234,
		BestBid:        1400,
		BestOffer:      1700,
		TotalBidLot:    9000,
		TotalOfferLot:  3000,
		LastPrice:      1520,
	}

	first := ComputeTargets(in)
	second := ComputeTargets(in)
	assert.Equal(t, first, second)
}

func TestComputeTargetsClampedToBounds(t *testing.T) {
	in := TargetInput{
		BrokerAvgPrice: 1000,
		BrokerLot:      5000,
		BestBid:        990,
		BestOffer:      1050,
		TotalBidLot:    6000,
		TotalOfferLot:  4000,
		LastPrice:      1000,
	}

	result := ComputeTargets(in)

	// raw targets 980 and 1100 fall outside [990, 1050]
	assert.Equal(t, 990.0, result.TargetBuy)
	assert.Equal(t, 1050.0, result.TargetSell)
}

func TestComputeTargetsSnapsDownToTick(t *testing.T) {
	in := TargetInput{
		BrokerAvgPrice: 1003,
		BestBid:        0,
		BestOffer:      0,
		LastPrice:      1003,
	}

	result := ComputeTargets(in)

	// 1003 * 0.98 = 982.94 -> 980 on a 5 tick grid
	assert.Equal(t, 980.0, result.TargetBuy)
	assert.Equal(t, 0.0, result.FloatRatio)
}

func TestComputeTargetsEmptyOrderBook(t *testing.T) {
	in := TargetInput{
		BrokerAvgPrice: 1000,
		BrokerLot:      5000,
		TotalBidLot:    0,
		TotalOfferLot:  0,
		LastPrice:      1000,
	}

	result := ComputeTargets(in)

	assert.Equal(t, 0.0, result.AvgOrderLot)
	assert.Equal(t, 0.0, result.FloatRatio)
	// base 5% margin only
	assert.Equal(t, 1050.0, result.TargetSell)
}

func TestComputeTargetsZeroPrices(t *testing.T) {
	result := ComputeTargets(TargetInput{
		BrokerLot:     100,
		TotalBidLot:   200,
		TotalOfferLot: 200,
	})

	assert.Equal(t, 0.0, result.TickSize)
	assert.Equal(t, 0.0, result.TargetBuy)
	assert.Equal(t, 0.0, result.TargetSell)
	assert.Equal(t, 0.5, result.FloatRatio)
}
