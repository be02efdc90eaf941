package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// ClientConfig configures a market data download client.
type ClientConfig struct {
	ProviderType  ProviderType
	DataPath      string
	PolygonAPIKey string
}

// DownloadParams describe a single download request.
type DownloadParams struct {
	Ticker     string
	StartDate  time.Time
	EndDate    time.Time
	Resolution types.Resolution
}

// Client wires a provider to a writer and runs downloads.
type Client struct {
	config     ClientConfig
	provider   Provider
	onProgress OnDownloadProgress
}

// NewClient creates a download client for the configured provider.
func NewClient(config ClientConfig) (*Client, error) {
	provider, err := NewProvider(config.ProviderType, config.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     config,
		provider:   provider,
		onProgress: nil,
	}, nil
}

// SetProgressCallback registers a progress callback invoked during downloads.
func (c *Client) SetProgressCallback(onProgress OnDownloadProgress) {
	c.onProgress = onProgress
}

// Download fetches bars per params and writes them as a Parquet file under
// the configured data path. Returns the output file path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if params.StartDate.After(params.EndDate) {
		return "", errors.Newf(errors.ErrCodeInvalidDateRange, "start date %s is after end date %s",
			params.StartDate.Format("2006-01-02"), params.EndDate.Format("2006-01-02"))
	}

	if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data path %s", c.config.DataPath)
	}

	outputFileName := fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Resolution,
	)
	outputPath := filepath.Join(c.config.DataPath, outputFileName)

	writer := NewDuckDBWriter(outputPath)
	defer writer.Close()

	c.provider.ConfigWriter(writer)

	return c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate, params.Resolution, c.onProgress)
}
