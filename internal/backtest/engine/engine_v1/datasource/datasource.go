package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/types"
)

// DataSource assembles per-time-step slices out of standard bar data and any
// registered custom data feeds.
type DataSource interface {
	// Initialize loads the bar data from the given path. CSV and Parquet
	// files are supported.
	Initialize(path string) error
	// AddCustomData loads a custom data feed from the given path and keys its
	// records to the given feed symbol. Steps without a record for a feed are
	// normal.
	AddCustomData(symbol types.Symbol, path string) error
	// ReadAll yields one slice per distinct timestamp within the optional
	// range, in time order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Slice, error) bool)
	// Count returns the number of time steps within the optional range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}
