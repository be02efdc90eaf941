package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/log"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// backtestContext is the host-side implementation of algorithm.Context. It
// records registrations during Initialize and becomes locked afterwards so
// the configuration stays immutable for the rest of the run.
type backtestContext struct {
	logger        *logger.Logger
	diagnostics   log.Log
	portfolio     *BacktestPortfolio
	currentTime   time.Time
	startDate     optional.Option[time.Time]
	endDate       optional.Option[time.Time]
	subscriptions []types.Subscription
	locked        bool
}

func newBacktestContext(portfolio *BacktestPortfolio, diagnostics log.Log, logger *logger.Logger) *backtestContext {
	return &backtestContext{
		logger:        logger,
		diagnostics:   diagnostics,
		portfolio:     portfolio,
		currentTime:   time.Time{},
		startDate:     optional.None[time.Time](),
		endDate:       optional.None[time.Time](),
		subscriptions: nil,
		locked:        false,
	}
}

// SetStartDate implements algorithm.Context.
func (c *backtestContext) SetStartDate(year int, month time.Month, day int) error {
	if c.locked {
		return errors.New(errors.ErrCodeSubscriptionsImmutable, "date range cannot change after initialization")
	}

	c.startDate = optional.Some(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))

	return nil
}

// SetEndDate implements algorithm.Context.
func (c *backtestContext) SetEndDate(year int, month time.Month, day int) error {
	if c.locked {
		return errors.New(errors.ErrCodeSubscriptionsImmutable, "date range cannot change after initialization")
	}

	c.endDate = optional.Some(time.Date(year, month, day, 23, 59, 59, 0, time.UTC))

	return nil
}

// AddEquity implements algorithm.Context.
func (c *backtestContext) AddEquity(symbol string, resolution types.Resolution) (types.Symbol, error) {
	if c.locked {
		return "", errors.New(errors.ErrCodeSubscriptionsImmutable, "subscriptions cannot change after initialization")
	}

	if symbol == "" {
		return "", errors.New(errors.ErrCodeInvalidSymbol, "equity symbol is empty")
	}

	sub := types.Subscription{
		Symbol:     types.Symbol(symbol),
		Kind:       types.SubscriptionKindEquity,
		Resolution: resolution,
	}

	if err := sub.Validate(); err != nil {
		return "", err
	}

	if c.subscribed(sub.Symbol) {
		return "", errors.Newf(errors.ErrCodeDuplicateSubscription, "already subscribed to %s", symbol)
	}

	c.subscriptions = append(c.subscriptions, sub)
	c.logger.Debug("Equity subscription registered",
		zap.String("symbol", symbol),
		zap.String("resolution", string(resolution)),
	)

	return sub.Symbol, nil
}

// AddCustomData implements algorithm.Context. The feed symbol is derived from
// the feed name and the underlying equity, mirroring how custom data symbols
// shadow their underlying instrument.
func (c *backtestContext) AddCustomData(name string, underlying types.Symbol) (types.Symbol, error) {
	if c.locked {
		return "", errors.New(errors.ErrCodeSubscriptionsImmutable, "subscriptions cannot change after initialization")
	}

	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidSymbol, "custom data name is empty")
	}

	equity, ok := c.equitySubscription(underlying)
	if !ok {
		return "", errors.Newf(errors.ErrCodeSubscriptionNotFound, "custom data underlying %s is not a registered equity", underlying)
	}

	sub := types.Subscription{
		Symbol:     types.CustomSymbol(name, underlying),
		Kind:       types.SubscriptionKindCustom,
		Resolution: equity.Resolution,
		Underlying: underlying,
	}

	if err := sub.Validate(); err != nil {
		return "", err
	}

	if c.subscribed(sub.Symbol) {
		return "", errors.Newf(errors.ErrCodeDuplicateSubscription, "already subscribed to %s", sub.Symbol)
	}

	c.subscriptions = append(c.subscriptions, sub)
	c.logger.Debug("Custom data subscription registered",
		zap.String("symbol", sub.Symbol.String()),
		zap.String("underlying", underlying.String()),
	)

	return sub.Symbol, nil
}

// SetHoldings implements algorithm.Context.
func (c *backtestContext) SetHoldings(symbol types.Symbol, weight float64) error {
	if _, ok := c.equitySubscription(symbol); !ok {
		return errors.Newf(errors.ErrCodeSubscriptionNotFound, "holdings target %s is not a registered equity", symbol)
	}

	return c.portfolio.SetTargetHoldings(symbol, weight, c.currentTime)
}

// Log implements algorithm.Context.
func (c *backtestContext) Log(message string) {
	entry := log.Entry{
		Timestamp: c.currentTime,
		Symbol:    "",
		Message:   message,
	}

	if err := c.diagnostics.Log(entry); err != nil {
		c.logger.Error("Failed to record diagnostic message",
			zap.String("message", message),
			zap.Error(err),
		)
	}
}

// Logger implements algorithm.Context.
func (c *backtestContext) Logger() *logger.Logger {
	return c.logger
}

// lock freezes the registration surface once Initialize has returned.
func (c *backtestContext) lock() {
	c.locked = true
}

func (c *backtestContext) setCurrentTime(t time.Time) {
	c.currentTime = t
}

// dateRange returns the declared date range, failing when it is missing or
// inverted.
func (c *backtestContext) dateRange() (time.Time, time.Time, error) {
	if c.startDate.IsNone() || c.endDate.IsNone() {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeInvalidDateRange, "algorithm did not declare a date range")
	}

	start := c.startDate.Unwrap()
	end := c.endDate.Unwrap()

	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.Newf(errors.ErrCodeInvalidDateRange, "start date %s is not before end date %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	return start, end, nil
}

func (c *backtestContext) subscribed(symbol types.Symbol) bool {
	for _, sub := range c.subscriptions {
		if sub.Symbol == symbol {
			return true
		}
	}

	return false
}

func (c *backtestContext) equitySubscription(symbol types.Symbol) (types.Subscription, bool) {
	for _, sub := range c.subscriptions {
		if sub.Symbol == symbol && sub.Kind == types.SubscriptionKindEquity {
			return sub, true
		}
	}

	return types.Subscription{}, false
}

// Subscriptions returns the registered subscriptions in registration order.
func (c *backtestContext) Subscriptions() []types.Subscription {
	return c.subscriptions
}
