package marketdata

import (
	"context"
	"time"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// ProviderType identifies a market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
)

// OnDownloadProgress reports download progress to the caller.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider downloads historical bars from an external data vendor.
type Provider interface {
	// ConfigWriter configures the writer the downloaded bars are written to.
	ConfigWriter(writer BarWriter)
	// Download fetches bars for the ticker and date range at the given
	// resolution. The context can be used to cancel the download.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, resolution types.Resolution, onProgress OnDownloadProgress) (path string, err error)
}

// NewProvider creates a market data provider of the given type.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
