package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderEventHandler receives order lifecycle notifications as they happen.
type OrderEventHandler func(event types.OrderEvent)

// BacktestPortfolio tracks cash and holdings, and turns target-holdings
// commands into market orders filled against the current step's prices.
// Quantities are negative for short positions.
type BacktestPortfolio struct {
	logger           *logger.Logger
	state            *BacktestState
	cash             decimal.Decimal
	holdings         map[types.Symbol]types.Holding
	lastPrice        map[types.Symbol]float64
	decimalPrecision int32
	handler          OrderEventHandler
}

// NewBacktestPortfolio creates a portfolio with the given starting capital.
func NewBacktestPortfolio(state *BacktestState, initialCapital float64, decimalPrecision int, logger *logger.Logger) *BacktestPortfolio {
	return &BacktestPortfolio{
		logger:           logger,
		state:            state,
		cash:             decimal.NewFromFloat(initialCapital),
		holdings:         make(map[types.Symbol]types.Holding),
		lastPrice:        make(map[types.Symbol]float64),
		decimalPrecision: int32(decimalPrecision),
		handler:          nil,
	}
}

// SetOrderEventHandler registers the sink for order lifecycle events.
func (p *BacktestPortfolio) SetOrderEventHandler(handler OrderEventHandler) {
	p.handler = handler
}

// UpdateMarketData records the latest prices from the current slice.
func (p *BacktestPortfolio) UpdateMarketData(slice types.Slice) {
	for symbol, bar := range slice.Bars() {
		p.lastPrice[symbol] = bar.Close
	}
}

// Cash returns the current cash balance.
func (p *BacktestPortfolio) Cash() float64 {
	cash, _ := p.cash.Float64()

	return cash
}

// Holding returns the current holding for a symbol. A zero holding is
// returned for symbols never traded.
func (p *BacktestPortfolio) Holding(symbol types.Symbol) types.Holding {
	if holding, ok := p.holdings[symbol]; ok {
		return holding
	}

	return types.Holding{Symbol: symbol}
}

// TotalValue returns cash plus the market value of all holdings at the last
// known prices.
func (p *BacktestPortfolio) TotalValue() float64 {
	total, _ := p.totalValue().Float64()

	return total
}

func (p *BacktestPortfolio) totalValue() decimal.Decimal {
	total := p.cash

	for symbol, holding := range p.holdings {
		price, ok := p.lastPrice[symbol]
		if !ok {
			price = holding.AveragePrice
		}

		total = total.Add(decimal.NewFromFloat(holding.Quantity).Mul(decimal.NewFromFloat(price)))
	}

	return total
}

// SetTargetHoldings adjusts the position in symbol to the given fraction of
// total portfolio value. Weight must be within [-1, 1]; the sign selects
// long or short. The resulting market order is filled immediately at the
// last known price and exactly one FILLED event is emitted per fill.
func (p *BacktestPortfolio) SetTargetHoldings(symbol types.Symbol, weight float64, stepTime time.Time) error {
	if weight < -1.0 || weight > 1.0 {
		return errors.Newf(errors.ErrCodeInvalidWeight, "target weight %.4f outside [-1, 1] for %s", weight, symbol)
	}

	price, ok := p.lastPrice[symbol]
	if !ok || price <= 0 {
		return errors.Newf(errors.ErrCodeMarketDataMissing, "no market data for %s yet", symbol)
	}

	priceDec := decimal.NewFromFloat(price)
	holding := p.Holding(symbol)
	currentValue := decimal.NewFromFloat(holding.Quantity).Mul(priceDec)
	targetValue := p.totalValue().Mul(decimal.NewFromFloat(weight))
	deltaQuantity := targetValue.Sub(currentValue).Div(priceDec).RoundDown(p.decimalPrecision)

	if deltaQuantity.IsZero() {
		p.logger.Debug("Target holdings already met",
			zap.String("symbol", symbol.String()),
			zap.Float64("weight", weight),
		)

		return nil
	}

	side := types.SideBuy
	if deltaQuantity.IsNegative() {
		side = types.SideSell
	}

	quantity, _ := deltaQuantity.Abs().Float64()

	order := types.Order{
		ID:       uuid.New().String(),
		Symbol:   symbol,
		Side:     side,
		Type:     types.OrderTypeMarket,
		Quantity: quantity,
		Price:    price,
		Time:     stepTime,
		Tag:      "set_holdings",
	}

	if err := order.Validate(); err != nil {
		return err
	}

	return p.fill(order, deltaQuantity, priceDec)
}

// fill executes the order against the current price, updates cash and
// holdings, journals the fill, and notifies the event handler.
func (p *BacktestPortfolio) fill(order types.Order, deltaQuantity decimal.Decimal, price decimal.Decimal) error {
	p.cash = p.cash.Sub(deltaQuantity.Mul(price))

	holding := p.Holding(order.Symbol)
	oldQuantity := decimal.NewFromFloat(holding.Quantity)
	newQuantity := oldQuantity.Add(deltaQuantity)

	switch {
	case newQuantity.IsZero():
		holding.AveragePrice = 0
	case oldQuantity.IsZero() || oldQuantity.Sign() != newQuantity.Sign():
		// Opened or flipped the position; the average resets to this fill.
		holding.AveragePrice, _ = price.Float64()
	case newQuantity.Abs().GreaterThan(oldQuantity.Abs()):
		oldCost := decimal.NewFromFloat(holding.AveragePrice).Mul(oldQuantity)
		newCost := oldCost.Add(deltaQuantity.Mul(price))
		holding.AveragePrice, _ = newCost.Div(newQuantity).Float64()
	}

	holding.Quantity, _ = newQuantity.Float64()
	p.holdings[order.Symbol] = holding

	event := types.OrderEvent{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Status:       types.OrderStatusFilled,
		FillPrice:    order.Price,
		FillQuantity: order.Quantity,
		Time:         order.Time,
	}

	if p.state != nil {
		if err := p.state.RecordFill(order, event); err != nil {
			return err
		}
	}

	p.logger.Debug("Order filled",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol.String()),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("price", order.Price),
	)

	if p.handler != nil {
		p.handler(event)
	}

	return nil
}

// Reset returns the portfolio to its starting state for another run.
func (p *BacktestPortfolio) Reset(initialCapital float64) {
	p.cash = decimal.NewFromFloat(initialCapital)
	p.holdings = make(map[types.Symbol]types.Holding)
	p.lastPrice = make(map[types.Symbol]float64)
}
