package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Symbol identifies a tradable instrument or a custom data feed bound to one.
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

// CustomSymbol derives the symbol of a custom data feed from the feed name
// and the underlying equity it is bound to.
func CustomSymbol(name string, underlying Symbol) Symbol {
	return Symbol(name + "." + underlying.String())
}

// Resolution is the sampling granularity of a data subscription.
type Resolution string

const (
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDaily  Resolution = "daily"
)

// SubscriptionKind distinguishes standard equity feeds from custom data feeds.
type SubscriptionKind string

const (
	SubscriptionKindEquity SubscriptionKind = "equity"
	SubscriptionKindCustom SubscriptionKind = "custom"
)

// Subscription describes a single data feed registered by an algorithm during
// initialization. Subscriptions are immutable once the algorithm is initialized.
type Subscription struct {
	Symbol     Symbol           `yaml:"symbol" json:"symbol" validate:"required"`
	Kind       SubscriptionKind `yaml:"kind" json:"kind" validate:"required,oneof=equity custom"`
	Resolution Resolution       `yaml:"resolution" json:"resolution" validate:"required,oneof=minute hour daily"`
	// Underlying is the equity symbol a custom data feed is bound to.
	// Empty for equity subscriptions.
	Underlying Symbol `yaml:"underlying" json:"underlying"`
}

// Validate validates the Subscription struct.
func (s *Subscription) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid subscription", err)
	}

	return nil
}
