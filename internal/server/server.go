// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paritytech/push-release/internal/auth"
	"github.com/paritytech/push-release/internal/chains"
	"github.com/paritytech/push-release/internal/chains/evm"
	"github.com/paritytech/push-release/internal/config"
	"github.com/paritytech/push-release/internal/github"
	"github.com/paritytech/push-release/internal/metadata"
	"github.com/paritytech/push-release/internal/middleware/logging"
	"github.com/paritytech/push-release/internal/middleware/ratelimit"
	"github.com/paritytech/push-release/internal/middleware/realip"
	"github.com/paritytech/push-release/internal/middleware/security"
	"github.com/paritytech/push-release/internal/observability/metrics"
	releaseDomain "github.com/paritytech/push-release/internal/release/domain"
	releaseTransport "github.com/paritytech/push-release/internal/release/transport"
)

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux

	releaseSvc releaseTransport.Service
}

// New creates a new server around a metadata source and a ledger.
func New(cfg *config.Config, source metadata.Source, ledger chains.Ledger, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
	}

	svc := releaseDomain.NewService(releaseDomain.Config{
		EnabledTracks:      cfg.Release.EnabledTracks,
		SupportedPlatforms: cfg.Release.SupportedPlatforms,
		AssetBaseURL:       cfg.Release.AssetBaseURL,
	}, auth.NewGate(cfg.Release.SecretHash), source, ledger, logger)

	// Wrap release service with logging middleware
	s.releaseSvc = releaseDomain.LoggingMiddleware(logger)(svc)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewSource builds the configured metadata source reading from the raw
// content host.
func NewSource(cfg *config.Config) metadata.Source {
	fetcher := github.New(cfg.Release.Repository,
		github.WithBaseURL(cfg.Release.RawBaseURL),
		github.WithTimeout(time.Duration(cfg.Fetch.Timeout)*time.Second),
		github.WithMaxAttempts(cfg.Fetch.MaxAttempts),
	)
	if cfg.Release.MetadataSource == config.SourceLegacy {
		return metadata.NewLegacySource(fetcher)
	}
	return metadata.NewManifestSource(fetcher, cfg.Release.ManifestPath)
}

// DialLedger connects to the configured node.
func DialLedger(ctx context.Context, cfg *config.Config) (*evm.Client, error) {
	opts := []evm.Option{
		evm.WithAccount(common.HexToAddress(cfg.Ledger.Account)),
		evm.WithPassword(cfg.Ledger.Password),
		evm.WithTimeout(time.Duration(cfg.Ledger.Timeout) * time.Second),
		evm.WithGasPrice(nil),
	}
	if cfg.Ledger.GasPrice != "" {
		price, err := hexutil.DecodeBig(cfg.Ledger.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid gas price: %w", err)
		}
		opts = append(opts, evm.WithGasPrice(price))
	}
	return evm.Dial(ctx, cfg.Ledger.RPCURL, opts...)
}

func (s *Server) setupMiddleware() {
	// 1. Real IP extraction (must be first to set client IP for other middleware)
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	// 2. Body size limit
	s.router.Use(security.MaxBodySizeMiddleware(s.cfg.Security.MaxBodySizeKB))
	s.router.Use(security.Headers)

	// 3. Rate limiting (health checks bypass it)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
	}))

	// 4. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Head("/", s.handleHealth)
	s.router.Get("/health", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", metrics.Handler())
	}

	releaseTransport.NewHandler(s.releaseSvc).RegisterRoutes(s.router)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte("OK"))
	}
}
