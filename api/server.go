package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	"golang.org/x/net/netutil"

	"github.com/vitalvas/apiecho/config"
	"github.com/vitalvas/apiecho/middleware"
	"github.com/vitalvas/apiecho/openapi"
)

// Server is the HTTP service: the echo route, the document endpoints and
// the health check. Everything that can fail is done by NewServer, before
// any socket is opened.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handler    http.Handler
	doc        *openapi.Document
	cache      *openapi.DocumentCache
	httpServer *http.Server
}

type options struct {
	logger    *slog.Logger
	cacheOpts []openapi.CacheOption
}

// Option configures NewServer.
type Option func(*options)

// WithLogger sets the service logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCacheOptions passes options to the document cache.
func WithCacheOptions(opts ...openapi.CacheOption) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// NewServer validates cfg, builds the router and the document, checks the
// document and, with the eager strategy, serializes it. Any failure is
// returned and nothing is left listening.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	ctx := context.Background()

	contentType, err := middleware.ContentTypeCheckMiddleware(middleware.ContentTypeCheckConfig{
		AllowedTypes: []string{"application/json"},
	})
	if err != nil {
		return nil, err
	}

	sizeLimit, err := middleware.RequestSizeLimitMiddleware(middleware.RequestSizeLimitConfig{
		MaxBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return nil, err
	}

	cors, err := middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		return nil, err
	}

	securityHeaders, err := middleware.SecurityHeadersMiddleware(middleware.SecurityHeadersConfig{})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestIDMiddleware(middleware.RequestIDConfig{}),
		middleware.AccessLogMiddleware(o.logger),
		middleware.RecoveryMiddleware(middleware.RecoveryConfig{}),
		securityHeaders,
	)

	// echo may be wrapped with request validation once the document exists;
	// it is final before the server starts.
	var echo http.Handler = echoHandler(cfg.Document.SchemaMode)
	r.Route("/v1", func(r chi.Router) {
		r.Use(cors)
		r.With(contentType, sizeLimit).Post("/foo", func(w http.ResponseWriter, req *http.Request) {
			echo.ServeHTTP(w, req)
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	doc, err := NewSpec(cfg.Document.SchemaMode).Build(r)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	if err := openapi.Validate(ctx, doc); err != nil {
		return nil, err
	}

	if cfg.Server.ValidateRequests {
		validator, err := requestValidator(ctx, doc)
		if err != nil {
			return nil, err
		}
		echo = validator(echo)
	}

	cache := openapi.NewDocumentCache(doc, o.cacheOpts...)
	if cfg.Document.Strategy == openapi.StrategyEager {
		if err := cache.Warm(); err != nil {
			return nil, fmt.Errorf("serialize document: %w", err)
		}
	}

	// A mounted sub-router runs cors before route matching, so preflight
	// requests reach it even though the document routes only serve GET.
	docs := chi.NewRouter()
	docs.Use(cors)
	openapi.Mount(docs, cache, &openapi.HandleConfig{
		Title:  Info.Title,
		Logger: o.logger,
	})
	r.Mount("/", docs)

	s := &Server{
		cfg:     cfg,
		logger:  o.logger,
		handler: r,
		doc:     doc,
		cache:   cache,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(o.logger.Handler(), slog.LevelWarn),
	}

	return s, nil
}

// requestValidator returns middleware checking requests against doc. The
// document's servers are dropped so that any host matches.
func requestValidator(ctx context.Context, doc *openapi.Document) (func(http.Handler) http.Handler, error) {
	kin, err := openapi.Load(ctx, doc)
	if err != nil {
		return nil, err
	}
	kin.Servers = nil

	return nethttpmiddleware.OapiRequestValidatorWithOptions(kin, &nethttpmiddleware.Options{
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			middleware.WriteError(w, statusCode, middleware.CodeInvalidRequest, message)
		},
	}), nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Document returns the built document.
func (s *Server) Document() *openapi.Document {
	return s.doc
}

// Cache returns the document cache.
func (s *Server) Cache() *openapi.DocumentCache {
	return s.cache
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if limit := s.cfg.Server.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}

	s.logger.Info("server listening",
		"address", ln.Addr().String(),
		"strategy", string(s.cfg.Document.Strategy),
		"schema_mode", string(s.cfg.Document.SchemaMode),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
