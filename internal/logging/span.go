package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one logical operation, such as a single API call, and logs its
// outcome when it ends.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	now    func() time.Time
}

// StartSpan derives a child context whose logger carries the span name and
// identifiers. The request id on the context is reused; one is minted when
// absent so every outbound call can be correlated with server logs.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
		logger = logger.With(slog.String("request_id", requestID))
	}

	parent := spanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now(), now: time.Now}
}

// Logger returns the span's logger.
func (s *Span) Logger() *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return s.logger
}

// End emits a completion entry. A non-nil err is logged at warn level so
// failed calls stand out without being treated as process errors.
func (s *Span) End(err error, attrs ...any) {
	if s == nil {
		return
	}
	attrs = append(attrs, slog.Duration("duration", s.now().Sub(s.start)))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.Warn("span failed", attrs...)
		return
	}
	s.logger.Debug("span completed", attrs...)
}
