package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SliceTestSuite struct {
	suite.Suite
}

func TestSliceSuite(t *testing.T) {
	suite.Run(t, new(SliceTestSuite))
}

func (suite *SliceTestSuite) TestEmptySlice() {
	slice := NewSlice(time.Date(2020, 10, 7, 0, 0, 0, 0, time.UTC))

	suite.True(slice.IsEmpty())

	_, ok := slice.Bar("SPY")
	suite.False(ok)

	_, ok = slice.Custom("SIGNAL.SPY")
	suite.False(ok)
	suite.Empty(slice.CustomRecords())
}

func (suite *SliceTestSuite) TestBarLookup() {
	now := time.Date(2020, 10, 7, 0, 0, 0, 0, time.UTC)
	slice := NewSlice(now)
	slice.AddBar(Bar{
		Symbol: "SPY",
		Time:   now,
		Open:   340.0,
		High:   343.0,
		Low:    339.0,
		Close:  342.5,
		Volume: 1000000,
	})

	bar, ok := slice.Bar("SPY")
	suite.True(ok)
	suite.Equal(Symbol("SPY"), bar.Symbol)
	suite.Equal(342.5, bar.Close)

	_, ok = slice.Bar("AAPL")
	suite.False(ok)
}

func (suite *SliceTestSuite) TestCustomLookup() {
	now := time.Date(2020, 10, 8, 0, 0, 0, 0, time.UTC)
	slice := NewSlice(now)
	slice.AddCustom(CustomData{
		Symbol: "SIGNAL.SPY",
		Time:   now,
		Signal: SignalBuy,
	})

	data, ok := slice.Custom("SIGNAL.SPY")
	suite.True(ok)
	suite.Equal(SignalBuy, data.Signal)
	suite.Len(slice.CustomRecords(), 1)
	suite.False(slice.IsEmpty())
}

func (suite *SliceTestSuite) TestSignalValues() {
	suite.Equal(SignalValue("buy"), SignalBuy)
	suite.Equal(SignalValue("sell"), SignalSell)
}

func (suite *SliceTestSuite) TestHoldingMarketValue() {
	long := Holding{Symbol: "SPY", Quantity: 10, AveragePrice: 340.0}
	suite.Equal(3425.0, long.MarketValue(342.5))
	suite.False(long.IsZero())

	short := Holding{Symbol: "SPY", Quantity: -10, AveragePrice: 340.0}
	suite.Equal(-3425.0, short.MarketValue(342.5))

	suite.True(Holding{Symbol: "SPY"}.IsZero())
}
