package headless

import (
	"context"
	"errors"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// ErrNotConfigured is returned by Noop.
var ErrNotConfigured = errors.New("headless fetcher not configured")

// Noop implements f1.Fetcher but always fails, for builds or environments
// without Chrome.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always returns ErrNotConfigured.
func (Noop) Fetch(_ context.Context, _ f1.FetchRequest) (f1.FetchResponse, error) {
	return f1.FetchResponse{}, ErrNotConfigured
}
