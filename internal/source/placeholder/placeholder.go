// Package placeholder holds alternate sources for paid providers that are not
// wired up. They keep their slot in the fallback order and always come back
// empty.
package placeholder

import (
	"context"

	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Source is a named no-op f1.RaceSource.
type Source struct {
	name   string
	logger *zap.Logger
}

// New creates a placeholder source with the given tag.
func New(name string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{name: name, logger: logger.Named(name)}
}

// SportRadar is the SportRadar slot.
func SportRadar(logger *zap.Logger) *Source {
	return New(f1.SourceSportRadar, logger)
}

// RapidAPI is the RapidAPI slot.
func RapidAPI(logger *zap.Logger) *Source {
	return New(f1.SourceRapidAPI, logger)
}

// Name implements f1.RaceSource.
func (s *Source) Name() string {
	return s.name
}

// Races logs the attempt and returns nothing; access needs a paid key.
func (s *Source) Races(_ context.Context, year int) ([]f1.Race, error) {
	s.logger.Info("provider requires an API key, skipping", zap.Int("year", year))
	return nil, nil
}
