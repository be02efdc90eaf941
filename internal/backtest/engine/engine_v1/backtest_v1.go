package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/algorithm"
	enginei "github.com/quantfold/quantfold/internal/backtest/engine"
	"github.com/quantfold/quantfold/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	algorithms    []algorithm.Algorithm
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
}

func NewBacktestEngineV1() enginei.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		algorithms:    nil,
		resultsFolder: "",
		log:           nil,
		datasource:    nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	// parse the config
	err := yaml.Unmarshal([]byte(config), &b.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	// initialize the logger
	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	if b.config.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "initial capital must be positive, got %.2f", b.config.InitialCapital)
	}

	if b.config.DecimalPrecision < 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "decimal precision must not be negative, got %d", b.config.DecimalPrecision)
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	return nil
}

// LoadAlgorithm implements engine.Engine.
func (b *BacktestEngineV1) LoadAlgorithm(algo algorithm.Algorithm) error {
	b.algorithms = append(b.algorithms, algo)
	b.log.Debug("Algorithm loaded",
		zap.String("name", algo.Name()),
		zap.Int("total_algorithms", len(b.algorithms)),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks enginei.LifecycleCallbacks) error {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	// clean the results folder
	if _, err := os.Stat(b.resultsFolder); err == nil {
		if err := os.RemoveAll(b.resultsFolder); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to clean results folder", err)
		}
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create results folder", err)
	}

	for _, algo := range b.algorithms {
		if err := b.runAlgorithm(ctx, algo, callbacks); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) runAlgorithm(ctx context.Context, algo algorithm.Algorithm, callbacks enginei.LifecycleCallbacks) error {
	state, err := NewBacktestState(b.log)
	if err != nil {
		return err
	}
	defer state.Close()

	if err := state.Initialize(); err != nil {
		return err
	}

	diagnostics, err := NewBacktestLog(b.log)
	if err != nil {
		return err
	}
	defer diagnostics.Close()

	portfolio := NewBacktestPortfolio(state, b.config.InitialCapital, b.config.DecimalPrecision, b.log)
	hostContext := newBacktestContext(portfolio, diagnostics, b.log)

	// Fills are dispatched to the algorithm as they happen, one event per fill.
	portfolio.SetOrderEventHandler(func(event types.OrderEvent) {
		algo.OnOrderEvent(hostContext, event)
	})

	if err := algo.Initialize(hostContext); err != nil {
		return errors.Wrapf(errors.ErrCodeAlgorithmInitFailed, err, "failed to initialize algorithm %s", algo.Name())
	}

	hostContext.lock()

	start, end, err := hostContext.dateRange()
	if err != nil {
		return err
	}

	// Config overrides may narrow, but never widen, the declared range.
	if b.config.StartTime.IsSome() && b.config.StartTime.Unwrap().After(start) {
		start = b.config.StartTime.Unwrap()
	}

	if b.config.EndTime.IsSome() && b.config.EndTime.Unwrap().Before(end) {
		end = b.config.EndTime.Unwrap()
	}

	count, err := b.datasource.Count(optional.Some(start), optional.Some(end))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to get data count", err)
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(algo.Name(), count); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	b.log.Debug("Running algorithm",
		zap.String("algorithm", algo.Name()),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("data_points", count),
	)

	currentCount := 0

	for slice, err := range b.datasource.ReadAll(optional.Some(start), optional.Some(end)) {
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read data", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hostContext.setCurrentTime(slice.Time)
		portfolio.UpdateMarketData(slice)

		if err := algo.OnData(hostContext, slice); err != nil {
			return errors.Wrapf(errors.ErrCodeAlgorithmRuntimeError, err, "algorithm %s failed to process data", algo.Name())
		}

		currentCount++

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(currentCount, count); err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	resultFolderPath := filepath.Join(b.resultsFolder, algo.Name())

	if err := state.Write(resultFolderPath); err != nil {
		return err
	}

	if err := diagnostics.Write(resultFolderPath); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to write diagnostics", err)
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(algo.Name(), resultFolderPath)
	}

	return state.Cleanup()
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.algorithms) == 0 {
		b.log.Error("No algorithms loaded")

		return errors.New(errors.ErrCodeBacktestNoAlgorithm, "no algorithms loaded")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}
