package promote

import (
	"context"

	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Detector decides whether a static response needs rendering.
type Detector interface {
	ShouldPromote(resp f1.FetchResponse) bool
}

// Fetcher tries a static fetcher first and falls back to a headless one.
type Fetcher struct {
	static   f1.Fetcher
	headless f1.Fetcher
	detector Detector
	logger   *zap.Logger
}

// New creates a promoting fetcher. A nil headless fetcher or detector turns
// it into a pass-through.
func New(static, headless f1.Fetcher, detector Detector, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		static:   static,
		headless: headless,
		detector: detector,
		logger:   logger.Named("promote"),
	}
}

// Fetch implements f1.Fetcher. A failed promotion keeps the static response.
func (f *Fetcher) Fetch(ctx context.Context, request f1.FetchRequest) (f1.FetchResponse, error) {
	resp, err := f.static.Fetch(ctx, request)
	if err != nil {
		return resp, err
	}
	if f.headless == nil || f.detector == nil || !f.detector.ShouldPromote(resp) {
		return resp, nil
	}
	rendered, err := f.headless.Fetch(ctx, request)
	if err != nil {
		f.logger.Warn("headless promotion failed", zap.String("url", request.URL), zap.Error(err))
		return resp, nil
	}
	f.logger.Debug("headless promotion applied", zap.String("url", request.URL))
	return rendered, nil
}
