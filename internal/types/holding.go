package types

// Holding is the portfolio's position in a single instrument. Quantity is
// negative for short positions.
type Holding struct {
	Symbol       Symbol  `yaml:"symbol" json:"symbol"`
	Quantity     float64 `yaml:"quantity" json:"quantity"`
	AveragePrice float64 `yaml:"average_price" json:"average_price"`
}

// MarketValue returns the holding's value at the given price. Negative for
// short positions.
func (h Holding) MarketValue(price float64) float64 {
	return h.Quantity * price
}

// IsZero reports whether the holding carries no position.
func (h Holding) IsZero() bool {
	return h.Quantity == 0
}
