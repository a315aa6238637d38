package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sealbet/sealbet/internal/commitment"
	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/notify"
	"github.com/sealbet/sealbet/internal/server"
	"github.com/sealbet/sealbet/internal/server/handler"
	"github.com/sealbet/sealbet/internal/server/ws"
	"github.com/sealbet/sealbet/internal/service"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const archiveLockKey = "lock:settlement-archive"

// services bundles the constructed service layer.
type services struct {
	market     *service.MarketService
	bet        *service.BetService
	oracle     *service.OracleService
	settlement *service.SettlementService
	staking    *service.StakingService
	admin      *service.AdminService
}

func (a *App) buildServices(deps *Dependencies) *services {
	p := a.cfg.Protocol
	hasher := crypto.NewHasher(p.HashScheme)
	betVerifier := commitment.NewVerifier(hasher, commitment.Windows{
		Commit: p.BetCommitWindow.Duration,
		Reveal: p.BetRevealWindow.Duration,
	})
	resolutionVerifier := commitment.NewVerifier(hasher, commitment.Windows{
		Commit: p.ResolutionCommitWindow.Duration,
		Reveal: p.ResolutionRevealWindow.Duration,
	})
	timing := domain.MarketTiming{
		ResolutionCommitWindow: p.ResolutionCommitWindow.Duration,
		ResolutionRevealWindow: p.ResolutionRevealWindow.Duration,
		ResolutionTimeout:      p.ResolutionTimeout.Duration,
	}

	return &services{
		market: service.NewMarketService(
			deps.Markets, deps.Oracles, deps.Protocol,
			deps.MarketCache, deps.SignalBus, deps.Clock,
			timing, p.MinHorizon.Duration, a.logger,
		),
		bet: service.NewBetService(
			deps.Bets, deps.Markets, deps.Oracles, deps.Stakes, deps.Protocol,
			betVerifier, deps.MarketCache, deps.SignalBus, deps.Clock, timing,
			service.BetBounds{Min: p.MinBet, Max: p.MaxBet}, a.logger,
		),
		oracle: service.NewOracleService(
			deps.Oracles, deps.Markets, deps.Protocol,
			resolutionVerifier, deps.MarketCache, deps.SignalBus, deps.Clock, timing,
			service.OracleParams{
				BondAmount:    p.BondAmount,
				SlashPercent:  p.SlashPercent,
				DisputeWindow: p.DisputeWindow.Duration,
			}, a.logger,
		),
		settlement: service.NewSettlementService(
			deps.Bets, deps.Markets, deps.Oracles, deps.Protocol,
			deps.MarketCache, deps.SignalBus, deps.Clock, timing, p.FeeBps, a.logger,
		),
		staking: service.NewStakingService(deps.Stakes, deps.Protocol, deps.Clock, a.logger),
		admin:   service.NewAdminService(deps.Protocol, a.logger),
	}
}

// ServerMode serves the HTTP API and, when configured, runs the periodic
// settlement archiver. It blocks until the context is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	svcs := a.buildServices(deps)

	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(Version),
		Market:     handler.NewMarketHandler(svcs.market, a.logger),
		Bet:        handler.NewBetHandler(svcs.bet, a.logger),
		Oracle:     handler.NewOracleHandler(svcs.oracle, a.logger),
		Settlement: handler.NewSettlementHandler(svcs.settlement, a.logger),
		Staking:    handler.NewStakingHandler(svcs.staking, a.logger),
		Admin:      handler.NewAdminHandler(svcs.admin, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, deps.Protocol, a.logger)
	}

	if deps.SignalBus != nil {
		if notifier := a.buildNotifier(); notifier != nil {
			a.watchAlerts(ctx, deps.SignalBus, notifier)
		}
	}

	srv := server.New(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		AuthorityKey: a.cfg.Server.AuthorityKey,
		RateLimit:    a.cfg.Server.RateLimit,
		RateWindow:   a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			a.archiveLoop(gctx, deps)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: server mode: %w", err)
	}
	return nil
}

// buildNotifier assembles the operator alert senders from configuration.
// Returns nil when no sender is configured.
func (a *App) buildNotifier() *notify.Notifier {
	n := a.cfg.Notify
	var senders []notify.Sender
	if n.TelegramToken != "" && n.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(n.TelegramToken, n.TelegramChatID))
	}
	if n.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(n.DiscordWebhookURL))
	}
	if len(senders) == 0 {
		return nil
	}
	return notify.NewNotifier(senders, n.Events, a.logger)
}

// archiveLoop periodically uploads settlement reports for markets past the
// retention window. A distributed lock keeps concurrent instances from
// archiving the same batch.
func (a *App) archiveLoop(ctx context.Context, deps *Dependencies) {
	interval := a.cfg.Archive.Interval.Duration
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runArchive(ctx, deps)
		}
	}
}

func (a *App) runArchive(ctx context.Context, deps *Dependencies) {
	if deps.LockManager != nil {
		unlock, err := deps.LockManager.Acquire(ctx, archiveLockKey, 5*time.Minute)
		if err != nil {
			if !errors.Is(err, domain.ErrLockHeld) {
				a.logger.WarnContext(ctx, "archive lock", slog.Any("error", err))
			}
			return
		}
		defer unlock()
	}

	archived, err := deps.Archiver.ArchiveSettled(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "settlement archive failed", slog.Any("error", err))
		return
	}
	if archived > 0 {
		a.logger.InfoContext(ctx, "settlement archive complete", slog.Int("markets", archived))
	}
}
