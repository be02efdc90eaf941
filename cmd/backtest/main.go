package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/quantfold/quantfold/internal/algos/customdata"
	enginei "github.com/quantfold/quantfold/internal/backtest/engine"
	engine "github.com/quantfold/quantfold/internal/backtest/engine/engine_v1"
	"github.com/quantfold/quantfold/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// backtestAction wires the datasource, the demonstration algorithm, and the
// engine together, then runs the backtest with a progress bar.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	customDataPath := cmd.String("custom-data")
	resultsFolder := cmd.String("results")

	config, err := engineConfig(cmd)
	if err != nil {
		return err
	}

	backtest := engine.NewBacktestEngineV1()
	if err := backtest.Initialize(config); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDataSource(":memory:", l)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load market data from %s: %w", dataPath, err)
	}

	signalSymbol := types.CustomSymbol(customdata.SignalFeedName, types.Symbol(customdata.EquityTicker))
	if err := source.AddCustomData(signalSymbol, customDataPath); err != nil {
		return fmt.Errorf("failed to load custom data from %s: %w", customDataPath, err)
	}

	if err := backtest.SetDataSource(source); err != nil {
		return err
	}

	if err := backtest.SetResultsFolder(resultsFolder); err != nil {
		return err
	}

	if err := backtest.LoadAlgorithm(customdata.NewCustomDataAlgorithm()); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := enginei.OnRunStartCallback(func(name string, totalDataPoints int) error {
		bar = progressbar.NewOptions(totalDataPoints,
			progressbar.OptionSetDescription(fmt.Sprintf("Running %s", name)),
			progressbar.OptionShowCount(),
		)

		return nil
	})

	onProcessData := enginei.OnProcessDataCallback(func(current int, total int) error {
		return bar.Set(current)
	})

	onRunEnd := enginei.OnRunEndCallback(func(name string, folder string) {
		bar.Finish()
		fmt.Printf("\n%s finished, results written to %s\n", name, folder)
	})

	return backtest.Run(ctx, enginei.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnRunEnd:      &onRunEnd,
		OnProcessData: &onProcessData,
	})
}

// engineConfig returns the yaml engine config, either read from the config
// flag's file or built from the capital flag.
func engineConfig(cmd *cli.Command) (string, error) {
	if configPath := cmd.String("config"); configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read config %s: %w", configPath, err)
		}

		return string(content), nil
	}

	return fmt.Sprintf("initial_capital: %v", cmd.Float("capital")), nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run the custom data demonstration algorithm against historical data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the bar data file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "custom-data",
				Aliases:  []string{"s"},
				Usage:    "Path to the custom signal data file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder the run results are written to",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a yaml engine config file (overrides --capital)",
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital for the backtest",
				Value: 10000,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
