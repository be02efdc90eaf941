package types

import "time"

// SignalValue is the discriminating field of a custom data record.
type SignalValue string

const (
	// SignalBuy requests fully long target holdings for the underlying equity.
	SignalBuy SignalValue = "buy"
	// SignalSell requests fully short target holdings for the underlying equity.
	SignalSell SignalValue = "sell"
)

// CustomData is an application-defined record ingested alongside standard
// market data. It is produced and owned by the data pipeline; algorithms
// only read it. Signal values other than "buy" and "sell" carry no meaning
// for the consumer and result in no action.
type CustomData struct {
	// Symbol is the custom data feed symbol, not the underlying equity.
	Symbol Symbol      `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time   time.Time   `yaml:"time" json:"time" csv:"time"`
	Signal SignalValue `yaml:"signal" json:"signal" csv:"signal"`
}
