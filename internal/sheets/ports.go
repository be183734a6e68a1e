package sheets

import (
	"context"

	"offertory/internal/core"
)

// Ports for outbound adapters.
type (
	// TallyWriter records a counted Sunday tally somewhere durable and
	// returns a reference to what was written.
	TallyWriter interface {
		AppendTally(ctx context.Context, t core.SundayTally) (ref string, err error)
	}

	// TallyWriters fans a tally out to several writers.
	TallyWriters []TallyWriter
)

// AppendTally writes to every writer in order and returns the last reference.
// It stops at the first failure.
func (ws TallyWriters) AppendTally(ctx context.Context, t core.SundayTally) (string, error) {
	var ref string
	for _, w := range ws {
		r, err := w.AppendTally(ctx, t)
		if err != nil {
			return "", err
		}
		ref = r
	}
	return ref, nil
}
