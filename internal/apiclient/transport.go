package apiclient

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/todo-client-go/pkg/utilities"
)

// loggingTransport tags each request with an X-Request-ID and logs its
// outcome at debug level.
type loggingTransport struct {
	next   http.RoundTripper
	logger *zap.SugaredLogger
}

func newLoggingTransport(next http.RoundTripper, logger *zap.SugaredLogger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	id := utilities.NewRequestID()
	// RoundTrippers must not modify the caller's request
	r = r.Clone(r.Context())
	r.Header.Set("X-Request-ID", id)

	resp, err := t.next.RoundTrip(r)
	dur := time.Since(start)
	if err != nil {
		t.logger.Debugw("api request failed",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", float64(dur.Microseconds())/1000.0,
			"err", err,
		)
		return nil, err
	}
	t.logger.Debugw("api request",
		"request_id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", float64(dur.Microseconds())/1000.0,
	)
	return resp, nil
}
