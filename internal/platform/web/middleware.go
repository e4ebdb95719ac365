package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

type subjectKey struct{}

// subject is filled in by the access guard once it has authenticated the
// caller, so the outer request logger can report who made the request.
type subject struct{ id string }

// SetSubject records the authenticated account id for the request log.
func SetSubject(ctx context.Context, id string) {
	if s, ok := ctx.Value(subjectKey{}).(*subject); ok {
		s.id = id
	}
}

// RequestLogger attaches log to each request context and writes one line per
// completed request.
func RequestLogger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			l := log.With().Str("request_id", reqID).Logger()

			s := &subject{id: "anonymous"}
			ctx := context.WithValue(r.Context(), subjectKey{}, s)
			ctx = l.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			l.Info().
				Str("subject", s.id).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", rec.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
