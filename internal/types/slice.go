package types

import "time"

// Slice is the per-time-step container of all data available to an algorithm
// at one instant. A new instance arrives with every data callback. It is
// read-only from the algorithm's perspective.
type Slice struct {
	Time   time.Time
	bars   map[Symbol]Bar
	custom map[Symbol]CustomData
}

// NewSlice creates a slice for the given time step.
func NewSlice(t time.Time) Slice {
	return Slice{
		Time:   t,
		bars:   make(map[Symbol]Bar),
		custom: make(map[Symbol]CustomData),
	}
}

// AddBar records a bar for the step. Used by the data pipeline while
// assembling the slice, never by algorithms.
func (s *Slice) AddBar(bar Bar) {
	s.bars[bar.Symbol] = bar
}

// AddCustom records a custom data record for the step.
func (s *Slice) AddCustom(data CustomData) {
	s.custom[data.Symbol] = data
}

// Bar returns the bar for the given symbol, if one arrived this step.
func (s Slice) Bar(symbol Symbol) (Bar, bool) {
	bar, ok := s.bars[symbol]

	return bar, ok
}

// Custom returns the custom data record for the given feed symbol, if one
// arrived this step. Absence is normal and not an error.
func (s Slice) Custom(symbol Symbol) (CustomData, bool) {
	data, ok := s.custom[symbol]

	return data, ok
}

// Bars returns all bars available this step keyed by symbol.
func (s Slice) Bars() map[Symbol]Bar {
	return s.bars
}

// CustomRecords returns all custom data records available this step keyed by
// feed symbol. The mapping may be empty for a given step.
func (s Slice) CustomRecords() map[Symbol]CustomData {
	return s.custom
}

// IsEmpty reports whether the step carries no data at all.
func (s Slice) IsEmpty() bool {
	return len(s.bars) == 0 && len(s.custom) == 0
}
