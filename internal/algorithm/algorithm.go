package algorithm

import (
	"time"

	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
)

// Algorithm is the contract between a trading algorithm and the host engine.
// The host invokes the callbacks sequentially, one at a time, once per time
// step or order lifecycle event. Algorithms issue commands back through the
// Context and never mutate engine-owned objects.
type Algorithm interface {
	// Initialize is invoked exactly once before any data arrives. The
	// algorithm registers its date range and data subscriptions here.
	Initialize(ctx Context) error
	// OnData is invoked once per time step with the slice of all data
	// available at that instant.
	OnData(ctx Context, slice types.Slice) error
	// OnOrderEvent is invoked once per order lifecycle event.
	OnOrderEvent(ctx Context, event types.OrderEvent)
	// Name returns the name of the algorithm.
	Name() string
}

// Context is the host-side API available to an algorithm. Registration
// methods may only be called during Initialize; the configuration is
// immutable afterward.
type Context interface {
	// SetStartDate declares the first day of the run.
	SetStartDate(year int, month time.Month, day int) error
	// SetEndDate declares the last day of the run.
	SetEndDate(year int, month time.Month, day int) error
	// AddEquity subscribes to a standard equity feed and returns its handle.
	AddEquity(symbol string, resolution types.Resolution) (types.Symbol, error)
	// AddCustomData subscribes to a custom data feed bound to an underlying
	// equity and returns the feed's handle.
	AddCustomData(name string, underlying types.Symbol) (types.Symbol, error)
	// SetHoldings requests target portfolio holdings for the instrument as a
	// fraction of total portfolio value. Weight must be within [-1, 1];
	// negative weights are short positions.
	SetHoldings(symbol types.Symbol, weight float64) error
	// Log emits a diagnostic message to the host's sink.
	Log(message string)
	// Logger returns the host's structured logger.
	Logger() *logger.Logger
}
