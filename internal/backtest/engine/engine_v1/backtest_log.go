package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantfold/quantfold/internal/log"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"go.uber.org/zap"
)

// BacktestLog implements the log.Log interface for backtesting purposes.
// It records algorithm diagnostic messages in a DuckDB database.
type BacktestLog struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestLog creates a new instance of BacktestLog.
func NewBacktestLog(logger *logger.Logger) (*BacktestLog, error) {
	// Create an in-memory DuckDB database
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection to ensure database is properly initialized
	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logStorage := &BacktestLog{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	// Initialize the database tables
	if err := logStorage.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return logStorage, nil
}

func (l *BacktestLog) initialize() error {
	_, err := l.db.Exec(`CREATE SEQUENCE IF NOT EXISTS log_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY,
			timestamp TIMESTAMP,
			symbol TEXT,
			message TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics table: %w", err)
	}

	return nil
}

// Log implements the log.Log interface. It records a diagnostic entry.
func (l *BacktestLog) Log(entry log.Entry) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	// Get the next ID from the sequence
	var nextID int

	err := l.db.QueryRow("SELECT nextval('log_id_seq')").Scan(&nextID)
	if err != nil {
		return fmt.Errorf("failed to get next ID from sequence: %w", err)
	}

	insertQuery := l.sq.
		Insert("diagnostics").
		Columns("id", "timestamp", "symbol", "message").
		Values(nextID, entry.Timestamp, entry.Symbol.String(), entry.Message).
		RunWith(l.db)

	_, err = insertQuery.Exec()
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic entry: %w", err)
	}

	return nil
}

// GetEntries implements the log.Log interface. It returns all recorded
// entries in emission order.
func (l *BacktestLog) GetEntries() ([]log.Entry, error) {
	if l == nil || l.db == nil {
		return nil, fmt.Errorf("backtest log or database is nil")
	}

	selectQuery := l.sq.
		Select("timestamp", "symbol", "message").
		From("diagnostics").
		OrderBy("id ASC").
		RunWith(l.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var entries []log.Entry

	for rows.Next() {
		var entry log.Entry

		var symbol string

		if err := rows.Scan(&entry.Timestamp, &symbol, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic entry: %w", err)
		}

		entry.Symbol = types.Symbol(symbol)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagnostics: %w", err)
	}

	return entries, nil
}

// Write exports the recorded diagnostics to a Parquet file in the given folder.
func (l *BacktestLog) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Using raw SQL as Squirrel doesn't support COPY
	logsPath := filepath.Join(path, "diagnostics.parquet")

	_, err := l.db.Exec(fmt.Sprintf(`COPY diagnostics TO '%s' (FORMAT PARQUET)`, logsPath))
	if err != nil {
		return fmt.Errorf("failed to export diagnostics to Parquet: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (l *BacktestLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}

	return nil
}
