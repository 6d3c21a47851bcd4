package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"casechain/core"
	"casechain/core/events"
	"casechain/explorer"
	"casechain/observability/metrics"
	"casechain/rpc/middleware"
)

const maxRequestBytes = 1 << 16

type Config struct {
	ListenAddress  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Auth           middleware.AuthConfig
	RateLimit      middleware.RateLimit
	AllowedOrigins []string
}

// EventIndex answers event history queries.
type EventIndex interface {
	ByAddress(ctx context.Context, addr string, q explorer.Query) ([]explorer.EventRecord, error)
	Recent(ctx context.Context, limit int) ([]explorer.EventRecord, error)
}

// Server exposes the engine over a REST API.
type Server struct {
	cfg     Config
	engine  *core.Engine
	feed    *events.Broadcaster
	index   EventIndex
	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
}

func NewServer(engine *core.Engine, cfg Config) *Server {
	logger := slog.Default()
	return &Server{
		cfg:     cfg,
		engine:  engine,
		auth:    middleware.NewAuthenticator(cfg.Auth, logger),
		limiter: middleware.NewRateLimiter(cfg.RateLimit, logger),
		logger:  logger,
	}
}

// SetFeed enables the live event websocket.
func (s *Server) SetFeed(feed *events.Broadcaster) { s.feed = feed }

// SetIndex enables the event history endpoint.
func (s *Server) SetIndex(index EventIndex) { s.index = index }

// SetMetrics reports websocket subscriber counts.
func (s *Server) SetMetrics(m *metrics.EngineMetrics) { s.metrics = m }

// SetLogger overrides the structured logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
	s.auth = middleware.NewAuthenticator(s.cfg.Auth, logger)
	s.limiter = middleware.NewRateLimiter(s.cfg.RateLimit, logger)
}

// Handler builds the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}))
	r.Use(middleware.Observe(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limiter.Middleware("v1"))

		r.Get("/token", s.handleToken)
		r.Get("/interest", s.handleInterest)
		r.Get("/can-refer", s.handleCanRefer)
		r.Get("/events", s.handleRecentEvents)
		r.Get("/events/ws", s.handleEventsWS)
		r.Route("/accounts/{address}", func(r chi.Router) {
			r.Get("/", s.handleAccount)
			r.Get("/stakes", s.handleStakes)
			r.Get("/stakes/{index}", s.handleStake)
			r.Get("/referrals", s.handleReferrals)
			r.Get("/rank", s.handleRank)
			r.Get("/allowance/{spender}", s.handleAllowance)
			r.Get("/events", s.handleAccountEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware(middleware.ScopeWrite))
			r.Post("/stakes", s.handleStakeOpen)
			r.Post("/stakes/{index}/withdraw", s.handleWithdraw)
			r.Post("/rank-up", s.handleRankUp)
			r.Post("/approve", s.handleApprove)
			r.Post("/transfer", s.handleTransfer)
			r.Post("/admin/mint", s.handleMint)
			r.Put("/admin/minters/{address}", s.handleGrantMinter)
			r.Delete("/admin/minters/{address}", s.handleRevokeMinter)
		})
	})

	return otelhttp.NewHandler(r, "cased",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", slog.String("addr", s.cfg.ListenAddress))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("requestId", chimw.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	writeJSON(w, status, errorBody{Error: body})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("invalid request body: " + err.Error())
	}
	return nil
}
