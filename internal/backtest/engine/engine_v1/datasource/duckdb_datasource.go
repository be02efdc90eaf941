package datasource

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance backed by the given
// database path. Use ":memory:" for an in-memory database. This is distinct
// from Initialize() which loads bar data into the database.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS custom_data (symbol TEXT, time TIMESTAMP, signal TEXT)`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create custom data table", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// readerFor picks the DuckDB reader function matching the file extension.
func readerFor(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".csv"):
		return fmt.Sprintf("read_csv_auto('%s')", path), nil
	case strings.HasSuffix(path, ".parquet"):
		return fmt.Sprintf("read_parquet('%s')", path), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file format: %s", path)
	}
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	// First drop the view if it exists
	_, err = d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// Create a view over the data file - raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT symbol, time, open, high, low, close, volume FROM %s;
	`, reader)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create market data view", err)
	}

	return nil
}

// AddCustomData implements DataSource.
func (d *DuckDBDataSource) AddCustomData(symbol types.Symbol, path string) error {
	d.logger.Debug("Loading custom data feed",
		zap.String("symbol", symbol.String()),
		zap.String("path", path),
	)

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO custom_data SELECT ? AS symbol, time, signal FROM %s`, reader)

	_, err = d.db.Exec(query, symbol.String())
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load custom data feed", err)
	}

	return nil
}

// timeBounds converts the optional range into squirrel predicates.
func timeBounds(start optional.Option[time.Time], end optional.Option[time.Time]) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer

	if start.IsSome() {
		conds = append(conds, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		conds = append(conds, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return conds
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := `
		SELECT COUNT(DISTINCT time) FROM (
			SELECT time FROM market_data
			UNION ALL
			SELECT time FROM custom_data
		)
	`

	var params []interface{}

	var conds []string

	if start.IsSome() {
		conds = append(conds, "time >= ?")

		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		conds = append(conds, "time <= ?")

		params = append(params, end.Unwrap())
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := d.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count time steps", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Slice, error) bool) {
	return func(yield func(types.Slice, error) bool) {
		slices, err := d.collectSlices(start, end)
		if err != nil {
			yield(types.Slice{}, err)

			return
		}

		for _, slice := range slices {
			if !yield(slice, nil) {
				return
			}
		}
	}
}

// collectSlices merges bar and custom data rows into one slice per timestamp.
func (d *DuckDBDataSource) collectSlices(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Slice, error) {
	steps := make(map[time.Time]*types.Slice)

	step := func(t time.Time) *types.Slice {
		if slice, ok := steps[t]; ok {
			return slice
		}

		slice := types.NewSlice(t)
		steps[t] = &slice

		return &slice
	}

	barQuery := d.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume").
		From("market_data").
		OrderBy("time ASC")

	for _, cond := range timeBounds(start, end) {
		barQuery = barQuery.Where(cond)
	}

	rows, err := barQuery.RunWith(d.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bar types.Bar

		var symbol string

		if err := rows.Scan(&symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bar.Symbol = types.Symbol(symbol)
		step(bar.Time).AddBar(bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate market data", err)
	}

	customQuery := d.sq.
		Select("symbol", "time", "signal").
		From("custom_data").
		OrderBy("time ASC")

	for _, cond := range timeBounds(start, end) {
		customQuery = customQuery.Where(cond)
	}

	customRows, err := customQuery.RunWith(d.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query custom data", err)
	}
	defer customRows.Close()

	for customRows.Next() {
		var data types.CustomData

		var symbol, signal string

		if err := customRows.Scan(&symbol, &data.Time, &signal); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan custom data", err)
		}

		data.Symbol = types.Symbol(symbol)
		data.Signal = types.SignalValue(signal)
		step(data.Time).AddCustom(data)
	}

	if err := customRows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate custom data", err)
	}

	times := make([]time.Time, 0, len(steps))
	for t := range steps {
		times = append(times, t)
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	result := make([]types.Slice, 0, len(times))
	for _, t := range times {
		result = append(result, *steps[t])
	}

	return result, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}
