package f1

import (
	"context"
	"time"
)

// Fetcher retrieves an HTML page. A non-2xx status is an error.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RaceSource produces a season calendar. Implementations never surface
// upstream failures: they log and return an empty list.
type RaceSource interface {
	Name() string
	Races(ctx context.Context, year int) ([]Race, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Publisher pushes acquisition events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator produces request IDs.
type IDGenerator interface {
	NewID() (string, error)
}
