package router

import (
	"context"
	"log/slog"
	"time"
)

// Service implements ClassifierService over a RuleMatcher.
type Service struct {
	ruleMatcher *RuleMatcher
}

// NewService creates a new router service. A nil matcher uses the default rules.
func NewService(matcher *RuleMatcher) *Service {
	if matcher == nil {
		matcher = NewRuleMatcher()
	}
	return &Service{ruleMatcher: matcher}
}

// Classify classifies user intent from input text.
func (s *Service) Classify(ctx context.Context, text string) Classification {
	start := time.Now()
	result := s.ruleMatcher.Match(text)

	slog.DebugContext(ctx, "intent classified",
		"input", truncate(text, 50),
		"intent", result.Intent,
		"tracking_code", result.TrackingCode,
		"latency_ms", time.Since(start).Milliseconds())
	return result
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Ensure Service implements ClassifierService
var _ ClassifierService = (*Service)(nil)
