package domain

import (
	"context"
	"log/slog"
	"time"
)

// loggingService is the interface required for logging middleware.
type loggingService interface {
	PushRelease(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error)
	PushBuild(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// LoggingMiddleware returns a service middleware that logs the outcome of
// every push. Secrets are never logged.
func LoggingMiddleware(logger *slog.Logger) func(loggingService) *loggingMiddleware {
	return func(next loggingService) *loggingMiddleware {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   loggingService
	logger *slog.Logger
}

func (m *loggingMiddleware) PushRelease(ctx context.Context, req ReleaseRequest) (*ReleaseResult, error) {
	start := time.Now()
	result, err := m.next.PushRelease(ctx, req)
	attrs := []any{
		"tag", req.Tag,
		"commit", req.Commit,
		"duration", time.Since(start),
	}
	if result != nil {
		attrs = append(attrs,
			"run_id", result.RunID,
			"track", result.Track.Label,
			"network", result.Network,
			"fork_block", result.ForkBlock,
			"tx", result.TxHash.Hex(),
		)
	}
	m.log(ctx, "PushRelease", err, attrs)
	return result, err
}

func (m *loggingMiddleware) PushBuild(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := time.Now()
	result, err := m.next.PushBuild(ctx, req)
	attrs := []any{
		"tag", req.Tag,
		"platform", req.Platform,
		"commit", req.Commit,
		"duration", time.Since(start),
	}
	if result != nil {
		attrs = append(attrs,
			"run_id", result.RunID,
			"track", result.Track.Label,
			"hint_tx", result.HintTx.Hex(),
			"checksum_tx", result.ChecksumTx.Hex(),
		)
	}
	m.log(ctx, "PushBuild", err, attrs)
	return result, err
}

func (m *loggingMiddleware) log(ctx context.Context, op string, err error, attrs []any) {
	if err == nil {
		m.logger.InfoContext(ctx, op, attrs...)
		return
	}
	attrs = append(attrs, "kind", KindOf(err).String(), "error", err)
	switch KindOf(err) {
	case KindDeclined, KindUnauthorized, KindInvalid:
		m.logger.WarnContext(ctx, op, attrs...)
	default:
		m.logger.ErrorContext(ctx, op, attrs...)
	}
}
