// Package customdata contains an algorithm that trades an equity off a custom
// data feed carrying buy/sell signals.
package customdata

import (
	"fmt"
	"time"

	"github.com/quantfold/quantfold/internal/algorithm"
	"github.com/quantfold/quantfold/internal/types"
)

const (
	// EquityTicker is the equity the algorithm trades.
	EquityTicker = "SPY"
	// SignalFeedName names the custom signal feed bound to the equity.
	SignalFeedName = "SIGNAL"
)

// CustomDataAlgorithm subscribes to SPY daily bars plus a signal feed bound
// to it, and sets target holdings fully long on a "buy" signal and fully
// short on a "sell" signal. Any other signal, or a step without a record,
// results in no action.
type CustomDataAlgorithm struct {
	name         string
	equitySymbol types.Symbol
	customSymbol types.Symbol
}

// NewCustomDataAlgorithm creates the algorithm.
func NewCustomDataAlgorithm() algorithm.Algorithm {
	return &CustomDataAlgorithm{
		name: "CustomDataAlgorithm",
	}
}

// Name implements algorithm.Algorithm.
func (a *CustomDataAlgorithm) Name() string {
	return a.name
}

// Initialize implements algorithm.Algorithm. It registers the date range,
// the equity subscription, and the custom data subscription keyed to that
// equity, in that order.
func (a *CustomDataAlgorithm) Initialize(ctx algorithm.Context) error {
	if err := ctx.SetStartDate(2020, time.October, 7); err != nil {
		return err
	}

	if err := ctx.SetEndDate(2020, time.October, 11); err != nil {
		return err
	}

	equity, err := ctx.AddEquity(EquityTicker, types.ResolutionDaily)
	if err != nil {
		return err
	}

	a.equitySymbol = equity

	custom, err := ctx.AddCustomData(SignalFeedName, a.equitySymbol)
	if err != nil {
		return err
	}

	a.customSymbol = custom

	return nil
}

// OnData implements algorithm.Algorithm.
func (a *CustomDataAlgorithm) OnData(ctx algorithm.Context, slice types.Slice) error {
	data, ok := slice.Custom(a.customSymbol)
	if !ok {
		return nil
	}

	switch data.Signal {
	case types.SignalBuy:
		return ctx.SetHoldings(a.equitySymbol, 1.0)
	case types.SignalSell:
		return ctx.SetHoldings(a.equitySymbol, -1.0)
	default:
		return nil
	}
}

// OnOrderEvent implements algorithm.Algorithm.
func (a *CustomDataAlgorithm) OnOrderEvent(ctx algorithm.Context, event types.OrderEvent) {
	if event.Status == types.OrderStatusFilled {
		ctx.Log(fmt.Sprintf("Purchased Stock: %s", event.Symbol))
	}
}
