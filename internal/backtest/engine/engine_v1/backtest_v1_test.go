package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/algos/customdata"
	enginei "github.com/quantfold/quantfold/internal/backtest/engine"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakeDataSource serves pre-built slices without any backing storage.
type fakeDataSource struct {
	slices []types.Slice
}

func (f *fakeDataSource) Initialize(path string) error {
	return nil
}

func (f *fakeDataSource) AddCustomData(symbol types.Symbol, path string) error {
	return nil
}

func (f *fakeDataSource) inRange(slice types.Slice, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && slice.Time.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && slice.Time.After(end.Unwrap()) {
		return false
	}

	return true
}

func (f *fakeDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Slice, error) bool) {
	return func(yield func(types.Slice, error) bool) {
		for _, slice := range f.slices {
			if !f.inRange(slice, start, end) {
				continue
			}

			if !yield(slice, nil) {
				return
			}
		}
	}
}

func (f *fakeDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, slice := range f.slices {
		if f.inRange(slice, start, end) {
			count++
		}
	}

	return count, nil
}

func (f *fakeDataSource) Close() error {
	return nil
}

func day(d int) time.Time {
	return time.Date(2020, 10, d, 0, 0, 0, 0, time.UTC)
}

func stepSlice(d int, closePrice float64, signal types.SignalValue) types.Slice {
	slice := types.NewSlice(day(d))
	slice.AddBar(types.Bar{
		Symbol: "SPY",
		Time:   day(d),
		Open:   closePrice - 1,
		High:   closePrice + 1,
		Low:    closePrice - 2,
		Close:  closePrice,
		Volume: 1e6,
	})

	if signal != "" {
		slice.AddCustom(types.CustomData{Symbol: "SIGNAL.SPY", Time: day(d), Signal: signal})
	}

	return slice
}

type BacktestEngineV1TestSuite struct {
	suite.Suite
	engine        enginei.Engine
	resultsFolder string
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.engine = NewBacktestEngineV1()
	suite.Require().NoError(suite.engine.Initialize(`
initial_capital: 10000
decimal_precision: 2
`))

	suite.resultsFolder = filepath.Join(suite.T().TempDir(), "results")
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.resultsFolder))
}

func (suite *BacktestEngineV1TestSuite) TestRunDemonstrationAlgorithm() {
	source := &fakeDataSource{
		slices: []types.Slice{
			stepSlice(7, 340.0, ""),
			stepSlice(8, 342.5, types.SignalBuy),
			stepSlice(9, 341.0, types.SignalSell),
			stepSlice(10, 339.5, "hold"),
		},
	}
	suite.Require().NoError(suite.engine.SetDataSource(source))

	algo := customdata.NewCustomDataAlgorithm()
	suite.Require().NoError(suite.engine.LoadAlgorithm(algo))

	var processed []int

	var totalPoints int

	onRunStart := enginei.OnRunStartCallback(func(name string, total int) error {
		suite.Equal("CustomDataAlgorithm", name)
		totalPoints = total

		return nil
	})
	onProcessData := enginei.OnProcessDataCallback(func(current int, total int) error {
		processed = append(processed, current)

		return nil
	})

	var endedFolder string

	onRunEnd := enginei.OnRunEndCallback(func(name string, folder string) {
		endedFolder = folder
	})

	err := suite.engine.Run(context.Background(), enginei.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnRunEnd:      &onRunEnd,
		OnProcessData: &onProcessData,
	})
	suite.Require().NoError(err)

	suite.Equal(4, totalPoints)
	suite.Equal([]int{1, 2, 3, 4}, processed)

	// A buy and a sell signal produce one order export each plus diagnostics.
	suite.Equal(filepath.Join(suite.resultsFolder, "CustomDataAlgorithm"), endedFolder)

	for _, file := range []string{"orders.parquet", "fills.parquet", "diagnostics.parquet"} {
		_, err := os.Stat(filepath.Join(endedFolder, file))
		suite.NoError(err, "expected %s to be exported", file)
	}
}

func (suite *BacktestEngineV1TestSuite) runWithConfig(config string) []int {
	suite.T().Helper()

	engine := NewBacktestEngineV1()
	suite.Require().NoError(engine.Initialize(config))
	suite.Require().NoError(engine.SetResultsFolder(filepath.Join(suite.T().TempDir(), "results")))
	suite.Require().NoError(engine.SetDataSource(&fakeDataSource{
		slices: []types.Slice{
			stepSlice(7, 340.0, ""),
			stepSlice(8, 342.5, types.SignalBuy),
			stepSlice(9, 341.0, types.SignalSell),
			stepSlice(10, 339.5, ""),
		},
	}))
	suite.Require().NoError(engine.LoadAlgorithm(customdata.NewCustomDataAlgorithm()))

	var processed []int

	onProcessData := enginei.OnProcessDataCallback(func(current int, total int) error {
		processed = append(processed, current)

		return nil
	})

	err := engine.Run(context.Background(), enginei.LifecycleCallbacks{
		OnProcessData: &onProcessData,
	})
	suite.Require().NoError(err)

	return processed
}

func (suite *BacktestEngineV1TestSuite) TestConfigOverridesNarrowDateRange() {
	// Overrides inside the algorithm's declared 2020-10-07..11 range shrink
	// the slice window to the two covered steps.
	processed := suite.runWithConfig(`
initial_capital: 10000
start_time: 2020-10-08T00:00:00Z
end_time: 2020-10-09T00:00:00Z
`)
	suite.Equal([]int{1, 2}, processed)
}

func (suite *BacktestEngineV1TestSuite) TestWiderConfigOverridesAreIgnored() {
	// Overrides outside the declared range never widen it; all four declared
	// steps still run.
	processed := suite.runWithConfig(`
initial_capital: 10000
start_time: 2020-10-01T00:00:00Z
end_time: 2020-10-20T00:00:00Z
`)
	suite.Equal([]int{1, 2, 3, 4}, processed)
}

func (suite *BacktestEngineV1TestSuite) TestRunFailsWhenResultsFolderUnusable() {
	suite.Require().NoError(suite.engine.SetDataSource(&fakeDataSource{
		slices: []types.Slice{stepSlice(7, 340.0, "")},
	}))
	suite.Require().NoError(suite.engine.LoadAlgorithm(customdata.NewCustomDataAlgorithm()))

	// A regular file occupies the parent path, so MkdirAll must fail.
	occupied := filepath.Join(suite.T().TempDir(), "occupied")
	suite.Require().NoError(os.WriteFile(occupied, []byte("x"), 0644))
	suite.Require().NoError(suite.engine.SetResultsFolder(filepath.Join(occupied, "results")))

	err := suite.engine.Run(context.Background(), enginei.LifecycleCallbacks{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestInitFailed))
}

func (suite *BacktestEngineV1TestSuite) TestRunWithoutAlgorithm() {
	suite.Require().NoError(suite.engine.SetDataSource(&fakeDataSource{}))

	err := suite.engine.Run(context.Background(), enginei.LifecycleCallbacks{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoAlgorithm))
}

func (suite *BacktestEngineV1TestSuite) TestRunWithoutDataSource() {
	suite.Require().NoError(suite.engine.LoadAlgorithm(customdata.NewCustomDataAlgorithm()))

	err := suite.engine.Run(context.Background(), enginei.LifecycleCallbacks{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))
}

func (suite *BacktestEngineV1TestSuite) TestInitializeRejectsBadCapital() {
	engine := NewBacktestEngineV1()

	err := engine.Initialize(`initial_capital: 0`)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := suite.engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "initial_capital")
}

func (suite *BacktestEngineV1TestSuite) TestRunHonorsCancellation() {
	source := &fakeDataSource{
		slices: []types.Slice{
			stepSlice(7, 340.0, ""),
			stepSlice(8, 342.5, types.SignalBuy),
		},
	}
	suite.Require().NoError(suite.engine.SetDataSource(source))
	suite.Require().NoError(suite.engine.LoadAlgorithm(customdata.NewCustomDataAlgorithm()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := suite.engine.Run(ctx, enginei.LifecycleCallbacks{})
	suite.ErrorIs(err, context.Canceled)
}
