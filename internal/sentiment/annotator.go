package sentiment

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/metrics"
)

// LabelCache memoizes labels by message content. Optional; nil disables caching.
type LabelCache interface {
	Get(ctx context.Context, text string) (string, error)
	Set(ctx context.Context, text, label string) error
}

// Annotator turns the fallible external collaborator into an infallible,
// bounded-time annotation step. Analyze always returns one of the three
// defined labels within the configured timeout.
type Annotator struct {
	service domain.SentimentService
	cache   LabelCache
	timeout time.Duration
	flight  singleflight.Group
}

func NewAnnotator(service domain.SentimentService, cache LabelCache, timeout time.Duration) *Annotator {
	return &Annotator{service: service, cache: cache, timeout: timeout}
}

// Analyze classifies text, falling back to neutral on any failure. The
// returned bool reports whether the fallback was taken.
func (a *Annotator) Analyze(ctx context.Context, text string) (domain.Sentiment, bool) {
	if a.service == nil {
		return domain.SentimentNeutral, true
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if a.cache != nil {
		if label, err := a.cache.Get(ctx, text); err == nil && label != "" {
			return domain.ParseSentiment(label), false
		}
	}

	// Concurrent sends of identical text share one collaborator call.
	start := time.Now()
	value, err, _ := a.flight.Do(text, func() (any, error) {
		return a.service.Analyze(ctx, text)
	})
	metrics.SentimentRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SentimentFallbacksTotal.Inc()
		slog.Warn("Sentiment analysis failed, falling back to neutral", "error", err)
		return domain.SentimentNeutral, true
	}

	label, _ := value.(string)
	result := domain.ParseSentiment(label)

	if a.cache != nil {
		if err := a.cache.Set(ctx, text, string(result)); err != nil {
			slog.Debug("Failed to cache sentiment label", "error", err)
		}
	}

	return result, false
}
