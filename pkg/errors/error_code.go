package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidOrderEvent    ErrorCode = 103
	ErrCodeInvalidSymbol        ErrorCode = 104
	ErrCodeInvalidDateRange     ErrorCode = 105
	ErrCodeInvalidWeight        ErrorCode = 106
	ErrCodeInvalidResolution    ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Algorithm errors (300-399)
	ErrCodeAlgorithmNotLoaded     ErrorCode = 300
	ErrCodeAlgorithmInitFailed    ErrorCode = 301
	ErrCodeAlgorithmRuntimeError  ErrorCode = 302
	ErrCodeSubscriptionNotFound   ErrorCode = 303
	ErrCodeDuplicateSubscription  ErrorCode = 304
	ErrCodeSubscriptionsImmutable ErrorCode = 305

	// Portfolio errors (400-499)
	ErrCodeOrderFailed       ErrorCode = 400
	ErrCodeHoldingNotFound   ErrorCode = 401
	ErrCodeMarketDataMissing ErrorCode = 402

	// Backtest errors (500-599)
	ErrCodeBacktestStateNil     ErrorCode = 500
	ErrCodeBacktestInitFailed   ErrorCode = 501
	ErrCodeBacktestConfigError  ErrorCode = 502
	ErrCodeBacktestNoAlgorithm  ErrorCode = 503
	ErrCodeBacktestNoDatasource ErrorCode = 504
	ErrCodeBacktestNoResultsDir ErrorCode = 505

	// Market data errors (600-699)
	ErrCodeMarketDataFetchFailed ErrorCode = 600
	ErrCodeMarketDataWriteFailed ErrorCode = 601
	ErrCodeInvalidProvider       ErrorCode = 602

	// Callback errors (700-799)
	ErrCodeCallbackFailed ErrorCode = 700
)
