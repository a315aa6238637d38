package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/parimutuel"
)

// SettlementService claims bets on terminal markets.
type SettlementService struct {
	bets     domain.BetStore
	markets  domain.MarketStore
	oracles  domain.OracleStore
	protocol domain.ProtocolStore
	cache    domain.MarketCache
	bus      domain.SignalBus
	clock    domain.Clock
	timing   domain.MarketTiming
	feeBps   uint64
	logger   *slog.Logger
}

// NewSettlementService creates a SettlementService with all required
// dependencies. Cache and bus may be nil.
func NewSettlementService(
	bets domain.BetStore,
	markets domain.MarketStore,
	oracles domain.OracleStore,
	protocol domain.ProtocolStore,
	cache domain.MarketCache,
	bus domain.SignalBus,
	clock domain.Clock,
	timing domain.MarketTiming,
	feeBps uint64,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		bets:     bets,
		markets:  markets,
		oracles:  oracles,
		protocol: protocol,
		cache:    cache,
		bus:      bus,
		clock:    clock,
		timing:   timing,
		feeBps:   feeBps,
		logger:   logger,
	}
}

// ClaimWinnings settles one bet on a terminal market. Cancelled markets
// refund the face amount fee-free; resolved markets pay winners their
// parimutuel share of the losing pool minus the fee and mark losers claimed
// at zero. The claimed flag flips before any value transfer, so a second
// claim of the same bet fails.
func (s *SettlementService) ClaimWinnings(ctx context.Context, marketID, bettor string, nonce uint64) (domain.Settlement, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.Settlement{}, fmt.Errorf("settlement_service: claim: %w", err)
	}

	m, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("settlement_service: get market: %w", err)
	}
	var rc *domain.ResolutionCommitment
	if got, rcErr := s.oracles.GetResolutionCommitment(ctx, marketID); rcErr == nil {
		rc = &got
	} else if !isNotFound(rcErr) {
		return domain.Settlement{}, fmt.Errorf("settlement_service: get resolution: %w", rcErr)
	}

	now := s.clock.Now()
	state := domain.DeriveState(m, rc, s.timing, now)

	b, err := s.bets.GetBet(ctx, marketID, bettor, nonce)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("settlement_service: get bet: %w", err)
	}
	if b.Claimed {
		return domain.Settlement{}, fmt.Errorf("settlement_service: claim: %w", domain.ErrAlreadyClaimed)
	}

	var settlement domain.Settlement
	switch state {
	case domain.StateCancelled:
		settlement = parimutuel.SettleRefund(b)
	case domain.StateResolved:
		winning, losing, ok := m.Pools()
		if !ok {
			return domain.Settlement{}, fmt.Errorf("settlement_service: resolved market without outcome: %w", domain.ErrMarketNotResolved)
		}
		won := (b.Side == domain.SideYes) == *m.Outcome
		if won {
			settlement = parimutuel.SettleWin(b, winning, losing, s.feeBps)
		} else {
			settlement = parimutuel.SettleLoss()
		}
	case domain.StateResolutionRevealed:
		return domain.Settlement{}, fmt.Errorf("settlement_service: claim before dispute deadline: %w", domain.ErrDisputeWindowOpen)
	default:
		return domain.Settlement{}, fmt.Errorf("settlement_service: claim on %s market: %w", state, domain.ErrMarketNotResolved)
	}

	if err := s.bets.SettleBet(ctx, marketID, bettor, nonce, settlement, now); err != nil {
		return domain.Settlement{}, fmt.Errorf("settlement_service: settle bet: %w", err)
	}
	invalidateMarket(ctx, s.cache, s.logger, marketID)

	s.logger.InfoContext(ctx, "bet claimed",
		slog.String("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("nonce", nonce),
		slog.String("result", string(settlement.Kind)),
		slog.Uint64("payout", settlement.Payout),
		slog.Uint64("fee", settlement.Fee),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelClaims, event(
		domain.EventClaimSettled, marketID, bettor, now, map[string]string{
			"nonce":  strconv.FormatUint(nonce, 10),
			"result": string(settlement.Kind),
			"payout": strconv.FormatUint(settlement.Payout, 10),
		}))
	return settlement, nil
}
