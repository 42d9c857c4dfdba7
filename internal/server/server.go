/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires the schedule, slide discovery and presentation loop behind an HTTP API
// and the renderer websocket.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/friendsincode/lessonboard/internal/clock"
	"github.com/friendsincode/lessonboard/internal/config"
	"github.com/friendsincode/lessonboard/internal/deck"
	"github.com/friendsincode/lessonboard/internal/events"
	"github.com/friendsincode/lessonboard/internal/logbuffer"
	"github.com/friendsincode/lessonboard/internal/schedule"
	"github.com/friendsincode/lessonboard/internal/scheduler"
	"github.com/friendsincode/lessonboard/internal/slides"
	"github.com/friendsincode/lessonboard/internal/telemetry"
)

// startupRetryInterval is the first wait before retrying a failed startup load.
var startupRetryInterval = time.Second

const startupRetryMax = 30 * time.Second

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	base       zerolog.Logger
	logger     zerolog.Logger
	router     chi.Router
	handler    http.Handler
	httpServer *http.Server
	closers    []func() error

	logBuffer  *logbuffer.Buffer
	bus        *events.Bus
	repo       *schedule.Repository
	source     schedule.Source
	discoverer slides.Discoverer
	scheduler  *scheduler.Service
	state      *scheduler.State

	slidesMu sync.RWMutex
	slides   []deck.SlideRef

	// Set when the corresponding startup load failed and must be retried.
	retrySchedule bool
	retrySlides   bool

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server, performs the initial schedule load and slide discovery, and starts
// the presentation loop.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog(logger))
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.MetricsMiddleware)
	router.Use(func(next http.Handler) http.Handler {
		limited := middleware.Timeout(30 * time.Second)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The renderer stream is long-lived.
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	})

	if logBuf == nil {
		logBuf = logbuffer.New(cfg.LogBufferSize)
	}

	srv := &Server{
		cfg:       cfg,
		base:      logger,
		logger:    logger.With().Str("component", "server").Logger(),
		router:    router,
		bus:       events.NewBus(),
		logBuffer: logBuf,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.handler = otelhttp.NewHandler(srv.router, "lessonboard",
		otelhttp.WithFilter(srv.tracedRequest),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		// Zero so the renderer websocket is not cut off; other routes use the timeout middleware.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.repo = schedule.NewRepository(s.base)
	s.source = schedule.NewSource(s.cfg.ScheduleSource)
	if err := s.repo.Refresh(ctx, s.source); err != nil {
		// Not fatal: the loop waits until a background retry succeeds.
		s.logger.Warn().Err(err).Str("source", s.source.Name()).Msg("initial schedule load failed")
		s.retrySchedule = true
	}

	discoverer, err := newDiscoverer(ctx, s.cfg, s.base)
	if err != nil {
		return err
	}
	s.discoverer = discoverer

	refs, err := discoverer.Discover(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("slide discovery failed, showing placeholder")
		refs = nil
		s.retrySlides = true
	}
	s.setSlides(refs)

	timings := scheduler.Timings{
		Entry: s.cfg.EntryTransition,
		Exit:  s.cfg.ExitTransition,
		Fade:  s.cfg.SlideFade,
	}
	s.state = scheduler.NewState(s.bus, timings, s.base)
	s.state.Deck.Load(refs)

	idle, err := scheduler.ParseIdlePolicy(s.cfg.IdleMode)
	if err != nil {
		return err
	}
	s.scheduler = scheduler.New(s.repo, s.bus, clock.System{Location: s.cfg.Location}, scheduler.Config{
		Period: s.cfg.Tick,
		Idle:   idle,
	}, s.base)
	return nil
}

func newDiscoverer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (slides.Discoverer, error) {
	switch cfg.SlidesBackend {
	case config.SlidesHTTP:
		return slides.NewHTTPDiscoverer(cfg.SlidesURL, cfg.SlideExtensions, nil, logger), nil
	case config.SlidesS3:
		return slides.NewS3Discoverer(ctx, slides.S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, cfg.SlideExtensions, logger)
	default:
		return slides.NewFilesystemDiscoverer(cfg.SlidesDir, cfg.SlidesPublicPath, cfg.SlideExtensions, logger), nil
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// tracedRequest keeps the websocket, probes and scrapes out of traces.
func (s *Server) tracedRequest(r *http.Request) bool {
	switch r.URL.Path {
	case "/ws", "/healthz", "/metrics":
		return false
	}
	return s.cfg.SlidesPublicPath == "" || !strings.HasPrefix(r.URL.Path, strings.TrimSuffix(s.cfg.SlidesPublicPath, "/")+"/")
}

// HTTPServer returns the configured http.Server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// LogBuffer returns the buffer behind /api/logs.
func (s *Server) LogBuffer() *logbuffer.Buffer {
	return s.logBuffer
}

// Bus returns the render command bus.
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// Scheduler returns the presentation loop service.
func (s *Server) Scheduler() *scheduler.Service {
	return s.scheduler
}

// ListenAndServe binds the listener before returning so bind errors abort startup, then serves
// in the background. Serve errors are sent on the returned channel.
func (s *Server) ListenAndServe() (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, nil, err
	}
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return ln.Addr(), errCh, nil
}

// Close stops background workers and runs registered cleanup hooks in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.scheduler.Run(ctx, s.state); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("scheduler loop exited")
		}
	}()

	if s.cfg.ScheduleReload > 0 {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.repo.Watch(ctx, s.source, s.cfg.ScheduleReload)
		}()
	}

	if s.retrySchedule {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.retryUntilLoaded(ctx, "schedule", func(ctx context.Context) error {
				if s.repo.Loaded() {
					// The reload watcher got there first.
					return nil
				}
				return s.repo.Refresh(ctx, s.source)
			})
		}()
	}

	if s.retrySlides {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.retryUntilLoaded(ctx, "slides", func(ctx context.Context) error {
				refs, err := s.discoverer.Discover(ctx)
				if err != nil {
					return err
				}
				s.setSlides(refs)
				s.scheduler.ReloadDeck(refs)
				return nil
			})
		}()
	}
}

// retryUntilLoaded repeats op with exponential backoff, capped at startupRetryMax, until it
// succeeds or ctx is cancelled.
func (s *Server) retryUntilLoaded(ctx context.Context, target string, op func(context.Context) error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = startupRetryInterval
	b.MaxInterval = startupRetryMax
	b.MaxElapsedTime = 0

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		return op(ctx)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.logger.Warn().Err(err).Str("target", target).Int("attempt", attempts).Dur("retry_in", wait).Msg("startup load still failing")
	})
	if err != nil {
		return
	}
	s.logger.Info().Str("target", target).Int("attempts", attempts).Msg("startup load recovered")
}

func (s *Server) setSlides(refs []deck.SlideRef) {
	s.slidesMu.Lock()
	defer s.slidesMu.Unlock()
	s.slides = refs
}

func (s *Server) currentSlides() []deck.SlideRef {
	s.slidesMu.RLock()
	defer s.slidesMu.RUnlock()
	return s.slides
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

// accessLog logs each request through zerolog at debug level, errors at warn.
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ev := logger.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				ev = logger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")

		// Slides may live on a CDN or S3 bucket, so images are allowed from anywhere.
		w.Header().Set("Content-Security-Policy", "default-src 'self' 'unsafe-inline'; img-src 'self' data: blob: https: http:; connect-src 'self' ws: wss:; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
