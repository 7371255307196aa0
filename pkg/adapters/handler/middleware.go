package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wadjakorntonsri/linkboard/pkg/config"
	"github.com/wadjakorntonsri/linkboard/pkg/core/auth"
	"github.com/wadjakorntonsri/linkboard/pkg/logger"
	"go.uber.org/zap"
)

// RequestIDHeader is read from the request and echoed on the response
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFrom returns the id assigned by the RequestID middleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Middleware struct {
	verifier *auth.Verifier
	log      *zap.Logger
	metrics  *Metrics
	timeout  time.Duration
}

func NewMiddleware(cfg *config.Config, log *zap.Logger, metrics *Metrics) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{
		verifier: auth.NewVerifier(cfg.JWTSecret),
		log:      log,
		metrics:  metrics,
		timeout:  cfg.RequestTimeout,
	}
}

// RequestID reuses the caller's X-Request-Id or generates one.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging stores a request-scoped logger in the context and writes one line
// per request once the handler returns.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := m.log
		if rid := RequestIDFrom(r.Context()); rid != "" {
			reqLogger = reqLogger.With(zap.String("request_id", rid))
		}
		r = r.WithContext(logger.Into(r.Context(), reqLogger))

		sw := newStatusWriter(w)
		start := time.Now()
		next.ServeHTTP(sw, r)

		reqLogger.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.Int("bytes", sw.count),
		)
	})
}

// Recover turns a panic into a 500 with the JSON error envelope.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic",
					zap.String("path", r.URL.Path),
					zap.Any("reason", rec),
					zap.Stack("stack"),
				)
				WriteError(w, r, http.StatusInternalServerError, CodeInternal, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Metrics records request count and latency by route pattern.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	if m.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusWriter(w)
		start := time.Now()
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.metrics.observe(r.Method, route, sw.Status(), time.Since(start))
	})
}

// Timeout bounds the request context. An existing deadline is kept.
func (m *Middleware) Timeout(next http.Handler) http.Handler {
	if m.timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Credential decodes the Authorization header. It never rejects a request:
// a bad credential leaves the request anonymous and the failure is kept in
// the context for guarded operations to report.
func (m *Middleware) Credential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		claims, err := m.verifier.DecodeCredential(header)
		if err != nil {
			logger.From(ctx).Debug("credential rejected", zap.Error(err))
			ctx = auth.WithCredentialError(ctx, err)
		} else {
			ctx = auth.WithUser(ctx, claims.UserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.count += n
	return n, err
}

// Status is what net/http sends when the handler never set one
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
