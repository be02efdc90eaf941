package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// BacktestState journals every order and fill produced during a run in a
// DuckDB database so results can be inspected after the run.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestState creates a state backed by an in-memory DuckDB database.
func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open state database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the necessary tables for tracking orders and fills.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			order_type TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			status TEXT,
			tag TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create orders table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			order_id TEXT,
			symbol TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create fills table", err)
	}

	return nil
}

// RecordFill journals an order together with its fill event.
func (b *BacktestState) RecordFill(order types.Order, event types.OrderEvent) error {
	if b == nil || b.db == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	insertOrder := b.sq.
		Insert("orders").
		Columns("order_id", "symbol", "side", "order_type", "quantity", "price", "timestamp", "status", "tag").
		Values(order.ID, order.Symbol.String(), string(order.Side), string(order.Type), order.Quantity, order.Price, order.Time, string(event.Status), order.Tag).
		RunWith(b.db)

	if _, err := insertOrder.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert order", err)
	}

	insertFill := b.sq.
		Insert("fills").
		Columns("order_id", "symbol", "quantity", "price", "timestamp").
		Values(event.OrderID, event.Symbol.String(), event.FillQuantity, event.FillPrice, event.Time).
		RunWith(b.db)

	if _, err := insertFill.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert fill", err)
	}

	return nil
}

// GetOrders returns all journaled orders in submission order.
func (b *BacktestState) GetOrders() ([]types.Order, error) {
	if b == nil || b.db == nil {
		return nil, errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	selectQuery := b.sq.
		Select("order_id", "symbol", "side", "order_type", "quantity", "price", "timestamp", "tag").
		From("orders").
		OrderBy("timestamp ASC").
		RunWith(b.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query orders", err)
	}
	defer rows.Close()

	var orders []types.Order

	for rows.Next() {
		var order types.Order

		var symbol, side, orderType string

		if err := rows.Scan(&order.ID, &symbol, &side, &orderType, &order.Quantity, &order.Price, &order.Time, &order.Tag); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan order", err)
		}

		order.Symbol = types.Symbol(symbol)
		order.Side = types.Side(side)
		order.Type = types.OrderType(orderType)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate orders", err)
	}

	return orders, nil
}

// Write exports the journaled orders and fills to Parquet files in the given
// folder.
func (b *BacktestState) Write(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create directory", err)
	}

	// Export orders to Parquet - using raw SQL as Squirrel doesn't support COPY
	ordersPath := filepath.Join(path, "orders.parquet")

	_, err := b.db.Exec(fmt.Sprintf(`COPY orders TO '%s' (FORMAT PARQUET)`, ordersPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to export orders to Parquet", err)
	}

	// Export fills to Parquet
	fillsPath := filepath.Join(path, "fills.parquet")

	_, err = b.db.Exec(fmt.Sprintf(`COPY fills TO '%s' (FORMAT PARQUET)`, fillsPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to export fills to Parquet", err)
	}

	b.logger.Info("Successfully exported backtest results to Parquet files",
		zap.String("orders", ordersPath),
		zap.String("fills", fillsPath),
	)

	return nil
}

// Cleanup drops the journal tables so the state can be reused for another run.
func (b *BacktestState) Cleanup() error {
	if b == nil || b.db == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	if _, err := b.db.Exec(`DROP TABLE IF EXISTS orders; DROP TABLE IF EXISTS fills;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop journal tables", err)
	}

	return nil
}

// Close closes the underlying database.
func (b *BacktestState) Close() error {
	if b.db != nil {
		return b.db.Close()
	}

	return nil
}
