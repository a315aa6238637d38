// Package server wires the HTTP API: REST endpoints for the settlement
// protocol and a WebSocket stream of protocol events.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/server/handler"
	"github.com/sealbet/sealbet/internal/server/middleware"
	"github.com/sealbet/sealbet/internal/server/ws"
)

// Config holds the server's runtime settings.
type Config struct {
	Port        int
	CORSOrigins []string
	// AuthorityKey guards the /api/admin endpoints. Empty disables the
	// static key check; the services still verify the caller address
	// against the protocol authority.
	AuthorityKey string
	// RateLimit is requests per client IP per RateWindow. Zero disables
	// HTTP rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers bundles the route handlers the server mounts.
type Handlers struct {
	Health     *handler.HealthHandler
	Market     *handler.MarketHandler
	Bet        *handler.BetHandler
	Oracle     *handler.OracleHandler
	Settlement *handler.SettlementHandler
	Staking    *handler.StakingHandler
	Admin      *handler.AdminHandler
}

// Server is the HTTP front door.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	logger     *slog.Logger
}

// New assembles the route table and middleware chain. limiter may be nil, in
// which case HTTP rate limiting is disabled.
func New(cfg Config, h Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.HandleFunc("GET /api/protocol", h.Admin.GetState)

	mux.HandleFunc("POST /api/markets", h.Market.Create)
	mux.HandleFunc("GET /api/markets", h.Market.List)
	mux.HandleFunc("GET /api/markets/{id}", h.Market.Get)

	mux.HandleFunc("POST /api/markets/{id}/bets/commit", h.Bet.Commit)
	mux.HandleFunc("POST /api/markets/{id}/bets/reveal", h.Bet.Reveal)
	mux.HandleFunc("GET /api/markets/{id}/bets", h.Bet.List)
	mux.HandleFunc("GET /api/markets/{id}/bets/{bettor}/{nonce}", h.Bet.Get)

	mux.HandleFunc("POST /api/markets/{id}/resolution/commit", h.Oracle.CommitResolution)
	mux.HandleFunc("POST /api/markets/{id}/resolution/reveal", h.Oracle.RevealResolution)
	mux.HandleFunc("POST /api/markets/{id}/resolve", h.Oracle.Resolve)
	mux.HandleFunc("POST /api/markets/{id}/claims", h.Settlement.Claim)

	mux.HandleFunc("POST /api/oracle/bond", h.Oracle.DepositBond)
	mux.HandleFunc("POST /api/oracle/bond/withdraw", h.Oracle.WithdrawBond)
	mux.HandleFunc("GET /api/oracle/bond/{address}", h.Oracle.GetBond)

	mux.HandleFunc("POST /api/staking/stake", h.Staking.Stake)
	mux.HandleFunc("POST /api/staking/unstake", h.Staking.Unstake)
	mux.HandleFunc("POST /api/staking/lock", h.Staking.Lock)
	mux.HandleFunc("POST /api/staking/unlock", h.Staking.Unlock)
	mux.HandleFunc("POST /api/staking/rewards/claim", h.Staking.ClaimRewards)
	mux.HandleFunc("GET /api/staking/{address}", h.Staking.Get)

	// Admin endpoints sit behind the static authority key in addition to
	// the per-call caller check inside the services.
	adminAuth := middleware.Auth(cfg.AuthorityKey)
	mux.Handle("POST /api/markets/{id}/dispute", adminAuth(http.HandlerFunc(h.Oracle.Dispute)))
	mux.Handle("POST /api/admin/pause", adminAuth(http.HandlerFunc(h.Admin.SetPaused)))
	mux.Handle("POST /api/admin/authority", adminAuth(http.HandlerFunc(h.Admin.TransferAuthority)))
	mux.Handle("POST /api/admin/badges", adminAuth(http.HandlerFunc(h.Staking.IssueBadge)))
	mux.Handle("DELETE /api/admin/badges", adminAuth(http.HandlerFunc(h.Staking.RevokeBadge)))

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var root http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		root = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(root)
	}
	root = middleware.Logging(logger)(root)
	root = middleware.CORS(cfg.CORSOrigins)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		hub:    hub,
		logger: logger,
	}
}

// Start runs the WebSocket hub and serves HTTP until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.hub != nil {
		go s.hub.Run(ctx)
	}
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
