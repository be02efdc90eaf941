package marketdata

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// PolygonClient downloads aggregate bars from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
	writer BarWriter
}

// NewPolygonClient creates a Polygon-backed provider.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon api key is required")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
		writer: nil,
	}, nil
}

// ConfigWriter implements Provider.
func (c *PolygonClient) ConfigWriter(w BarWriter) {
	c.writer = w
}

// Download implements Provider.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, resolution types.Resolution, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured, call ConfigWriter first")
	}

	timespan, err := timespanFor(resolution)
	if err != nil {
		return "", err
	}

	if err := c.writer.Initialize(); err != nil {
		return "", err
	}

	totalDays := endDate.Sub(startDate).Hours()/24 + 1

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	written := 0

	for iter.Next() {
		agg := iter.Item()

		bar := types.Bar{
			Symbol: types.Symbol(ticker),
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return "", err
		}

		written++

		if onProgress != nil {
			daysElapsed := time.Time(agg.Timestamp).Sub(startDate).Hours() / 24
			onProgress(daysElapsed, totalDays, fmt.Sprintf("Downloading %s", ticker))
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(), "failed to download aggregates for %s", ticker)
	}

	if written == 0 {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "no data returned for %s between %s and %s",
			ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	return c.writer.Finalize()
}

func timespanFor(resolution types.Resolution) (models.Timespan, error) {
	switch resolution {
	case types.ResolutionMinute:
		return models.Minute, nil
	case types.ResolutionHour:
		return models.Hour, nil
	case types.ResolutionDaily:
		return models.Day, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidResolution, "unsupported resolution: %s", resolution)
	}
}
