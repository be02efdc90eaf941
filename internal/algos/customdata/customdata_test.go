package customdata

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/stretchr/testify/suite"
)

// fakeContext records every command the algorithm issues.
type fakeContext struct {
	startDate     time.Time
	endDate       time.Time
	subscriptions []types.Subscription
	holdings      []holdingsCall
	messages      []string
	log           *logger.Logger
}

type holdingsCall struct {
	symbol types.Symbol
	weight float64
}

func newFakeContext(t *testing.T) *fakeContext {
	t.Helper()

	log, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	return &fakeContext{log: log}
}

func (f *fakeContext) SetStartDate(year int, month time.Month, day int) error {
	f.startDate = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return nil
}

func (f *fakeContext) SetEndDate(year int, month time.Month, day int) error {
	f.endDate = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return nil
}

func (f *fakeContext) AddEquity(symbol string, resolution types.Resolution) (types.Symbol, error) {
	sub := types.Subscription{
		Symbol:     types.Symbol(symbol),
		Kind:       types.SubscriptionKindEquity,
		Resolution: resolution,
	}
	f.subscriptions = append(f.subscriptions, sub)

	return sub.Symbol, nil
}

func (f *fakeContext) AddCustomData(name string, underlying types.Symbol) (types.Symbol, error) {
	sub := types.Subscription{
		Symbol:     types.Symbol(name + "." + underlying.String()),
		Kind:       types.SubscriptionKindCustom,
		Resolution: types.ResolutionDaily,
		Underlying: underlying,
	}
	f.subscriptions = append(f.subscriptions, sub)

	return sub.Symbol, nil
}

func (f *fakeContext) SetHoldings(symbol types.Symbol, weight float64) error {
	f.holdings = append(f.holdings, holdingsCall{symbol: symbol, weight: weight})

	return nil
}

func (f *fakeContext) Log(message string) {
	f.messages = append(f.messages, message)
}

func (f *fakeContext) Logger() *logger.Logger {
	return f.log
}

type CustomDataAlgorithmTestSuite struct {
	suite.Suite
	algo *CustomDataAlgorithm
	ctx  *fakeContext
}

func TestCustomDataAlgorithmSuite(t *testing.T) {
	suite.Run(t, new(CustomDataAlgorithmTestSuite))
}

func (suite *CustomDataAlgorithmTestSuite) SetupTest() {
	suite.algo = NewCustomDataAlgorithm().(*CustomDataAlgorithm)
	suite.ctx = newFakeContext(suite.T())
	suite.Require().NoError(suite.algo.Initialize(suite.ctx))
}

func (suite *CustomDataAlgorithmTestSuite) TestInitializeRegistersSubscriptionsInOrder() {
	suite.Equal(time.Date(2020, time.October, 7, 0, 0, 0, 0, time.UTC), suite.ctx.startDate)
	suite.Equal(time.Date(2020, time.October, 11, 0, 0, 0, 0, time.UTC), suite.ctx.endDate)

	suite.Require().Len(suite.ctx.subscriptions, 2)
	suite.Equal(types.SubscriptionKindEquity, suite.ctx.subscriptions[0].Kind)
	suite.Equal(types.Symbol("SPY"), suite.ctx.subscriptions[0].Symbol)
	suite.Equal(types.ResolutionDaily, suite.ctx.subscriptions[0].Resolution)
	suite.Equal(types.SubscriptionKindCustom, suite.ctx.subscriptions[1].Kind)
	suite.Equal(types.Symbol("SPY"), suite.ctx.subscriptions[1].Underlying)
}

func (suite *CustomDataAlgorithmTestSuite) slice(signal types.SignalValue) types.Slice {
	now := time.Date(2020, time.October, 8, 0, 0, 0, 0, time.UTC)
	slice := types.NewSlice(now)
	slice.AddBar(types.Bar{Symbol: "SPY", Time: now, Open: 340, High: 343, Low: 339, Close: 342.5, Volume: 1e6})
	slice.AddCustom(types.CustomData{
		Symbol: suite.algo.customSymbol,
		Time:   now,
		Signal: signal,
	})

	return slice
}

func (suite *CustomDataAlgorithmTestSuite) TestBuySignalSetsFullyLongHoldings() {
	suite.Require().NoError(suite.algo.OnData(suite.ctx, suite.slice(types.SignalBuy)))

	suite.Require().Len(suite.ctx.holdings, 1)
	suite.Equal(types.Symbol("SPY"), suite.ctx.holdings[0].symbol)
	suite.Equal(1.0, suite.ctx.holdings[0].weight)
}

func (suite *CustomDataAlgorithmTestSuite) TestSellSignalSetsFullyShortHoldings() {
	suite.Require().NoError(suite.algo.OnData(suite.ctx, suite.slice(types.SignalSell)))

	suite.Require().Len(suite.ctx.holdings, 1)
	suite.Equal(types.Symbol("SPY"), suite.ctx.holdings[0].symbol)
	suite.Equal(-1.0, suite.ctx.holdings[0].weight)
}

func (suite *CustomDataAlgorithmTestSuite) TestUnknownSignalTakesNoAction() {
	suite.Require().NoError(suite.algo.OnData(suite.ctx, suite.slice("hold")))

	suite.Empty(suite.ctx.holdings)
}

func (suite *CustomDataAlgorithmTestSuite) TestMissingRecordTakesNoAction() {
	now := time.Date(2020, time.October, 9, 0, 0, 0, 0, time.UTC)
	slice := types.NewSlice(now)
	slice.AddBar(types.Bar{Symbol: "SPY", Time: now, Open: 340, High: 343, Low: 339, Close: 342.5, Volume: 1e6})

	suite.Require().NoError(suite.algo.OnData(suite.ctx, slice))

	suite.Empty(suite.ctx.holdings)
}

func (suite *CustomDataAlgorithmTestSuite) TestFilledOrderEventEmitsOneMessage() {
	event := types.OrderEvent{
		OrderID:      uuid.New().String(),
		Symbol:       "SPY",
		Status:       types.OrderStatusFilled,
		FillPrice:    342.5,
		FillQuantity: 10,
		Time:         time.Now(),
	}

	suite.algo.OnOrderEvent(suite.ctx, event)

	suite.Require().Len(suite.ctx.messages, 1)
	suite.Contains(suite.ctx.messages[0], "SPY")
}

func (suite *CustomDataAlgorithmTestSuite) TestNonFilledOrderEventsEmitNothing() {
	for _, status := range []types.OrderStatus{
		types.OrderStatusPending,
		types.OrderStatusPartiallyFilled,
		types.OrderStatusCancelled,
		types.OrderStatusRejected,
	} {
		suite.algo.OnOrderEvent(suite.ctx, types.OrderEvent{
			OrderID: uuid.New().String(),
			Symbol:  "SPY",
			Status:  status,
			Time:    time.Now(),
		})
	}

	suite.Empty(suite.ctx.messages)
}
