package log

import (
	"time"

	"github.com/quantfold/quantfold/internal/types"
)

// Entry represents a single diagnostic message emitted by an algorithm,
// together with the simulated time it was emitted at.
type Entry struct {
	// Timestamp is the simulated time when the message was emitted.
	Timestamp time.Time
	// Symbol is the instrument the message relates to, if any.
	Symbol types.Symbol
	// Message is the diagnostic message content.
	Message string
}

// Log is the sink for algorithm diagnostic output.
type Log interface {
	// Log stores a diagnostic entry.
	Log(entry Entry) error
	// GetEntries retrieves all stored entries in emission order.
	GetEntries() ([]Entry, error)
}
