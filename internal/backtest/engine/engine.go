package engine

import (
	"context"

	"github.com/quantfold/quantfold/internal/algorithm"
	"github.com/quantfold/quantfold/internal/backtest/engine/engine_v1/datasource"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called when an algorithm run begins.
type OnRunStartCallback func(algorithmName string, totalDataPoints int) error

// OnRunEndCallback is called when an algorithm run ends.
type OnRunEndCallback func(algorithmName string, resultFolderPath string)

// OnProcessDataCallback is called for each data point processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

type Engine interface {
	// Initialize the engine with the given configuration content.
	Initialize(config string) error
	// LoadAlgorithm loads a trading algorithm. Could be called multiple times
	// to run multiple algorithms sequentially.
	LoadAlgorithm(algo algorithm.Algorithm) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	SetResultsFolder(folder string) error
	// Run runs the engine and executes the loaded algorithms.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
