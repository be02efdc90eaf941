package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantfold/quantfold/pkg/errors"
)

type Side string

type OrderType string

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
)

// Order is a command produced by the portfolio when target holdings change.
type Order struct {
	ID       string    `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol   Symbol    `yaml:"symbol" json:"symbol" validate:"required"`
	Side     Side      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Type     OrderType `yaml:"type" json:"type" validate:"required,oneof=MARKET"`
	Quantity float64   `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Price    float64   `yaml:"price" json:"price" validate:"required,gt=0"`
	Time     time.Time `yaml:"time" json:"time" validate:"required"`
	// Tag records what triggered the order, e.g. "set_holdings".
	Tag string `yaml:"tag" json:"tag"`
}

// OrderEvent is an ephemeral notification describing the lifecycle state of a
// previously submitted order. It is engine-owned and delivered once per event.
type OrderEvent struct {
	OrderID      string      `yaml:"order_id" json:"order_id" validate:"required,uuid"`
	Symbol       Symbol      `yaml:"symbol" json:"symbol" validate:"required"`
	Status       OrderStatus `yaml:"status" json:"status" validate:"required,oneof=PENDING FILLED PARTIALLY_FILLED CANCELLED REJECTED"`
	FillPrice    float64     `yaml:"fill_price" json:"fill_price" validate:"gte=0"`
	FillQuantity float64     `yaml:"fill_quantity" json:"fill_quantity" validate:"gte=0"`
	Time         time.Time   `yaml:"time" json:"time" validate:"required"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Validate validates the OrderEvent struct.
func (e *OrderEvent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(e); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderEvent, "invalid order event", err)
	}

	return nil
}
