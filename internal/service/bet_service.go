package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sealbet/sealbet/internal/commitment"
	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

// BetBounds are the accepted face-amount limits for a revealed bet.
type BetBounds struct {
	Min uint64
	Max uint64
}

// BetService runs the bet commit-reveal flow.
type BetService struct {
	bets     domain.BetStore
	markets  domain.MarketStore
	oracles  domain.OracleStore
	stakes   domain.StakeStore
	protocol domain.ProtocolStore
	verifier *commitment.Verifier
	cache    domain.MarketCache
	bus      domain.SignalBus
	clock    domain.Clock
	timing   domain.MarketTiming
	bounds   BetBounds
	logger   *slog.Logger
}

// NewBetService creates a BetService with all required dependencies. The
// verifier carries the bet commit and reveal windows; cache and bus may be
// nil.
func NewBetService(
	bets domain.BetStore,
	markets domain.MarketStore,
	oracles domain.OracleStore,
	stakes domain.StakeStore,
	protocol domain.ProtocolStore,
	verifier *commitment.Verifier,
	cache domain.MarketCache,
	bus domain.SignalBus,
	clock domain.Clock,
	timing domain.MarketTiming,
	bounds BetBounds,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		bets:     bets,
		markets:  markets,
		oracles:  oracles,
		stakes:   stakes,
		protocol: protocol,
		verifier: verifier,
		cache:    cache,
		bus:      bus,
		clock:    clock,
		timing:   timing,
		bounds:   bounds,
		logger:   logger,
	}
}

// CommitBet records a sealed bet commitment on an open market. The digest
// binds amount, side, nonce, and salt; none of them is disclosed here.
func (s *BetService) CommitBet(ctx context.Context, marketID, bettor string, nonce uint64, digest [32]byte) (domain.BetCommitment, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.BetCommitment{}, fmt.Errorf("bet_service: commit: %w", err)
	}

	state, _, err := s.marketState(ctx, marketID)
	if err != nil {
		return domain.BetCommitment{}, fmt.Errorf("bet_service: commit: %w", err)
	}
	if state != domain.StateOpen {
		return domain.BetCommitment{}, fmt.Errorf("bet_service: commit on %s market: %w", state, domain.ErrMarketNotOpen)
	}

	now := s.clock.Now()
	c := domain.BetCommitment{
		Commitment: domain.Commitment{Digest: digest, CommittedAt: now},
		MarketID:   marketID,
		Bettor:     bettor,
		Nonce:      nonce,
	}
	if err := s.bets.CreateCommitment(ctx, c); err != nil {
		return domain.BetCommitment{}, fmt.Errorf("bet_service: create commitment: %w", err)
	}

	s.logger.InfoContext(ctx, "bet committed",
		slog.String("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("nonce", nonce),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelBets, event(
		domain.EventBetCommitted, marketID, bettor, now, map[string]string{
			"nonce": strconv.FormatUint(nonce, 10),
		}))
	return c, nil
}

// RevealBet opens a sealed commitment. The preimage must reproduce the
// committed digest inside the reveal window, and the disclosed amount must be
// within bounds. On success the bet joins its side's pool with the staking
// bonus applied.
func (s *BetService) RevealBet(ctx context.Context, marketID, bettor string, p crypto.BetPreimage) (domain.Bet, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: reveal: %w", err)
	}

	c, err := s.bets.GetCommitment(ctx, marketID, bettor, p.Nonce)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: get commitment: %w", err)
	}

	now := s.clock.Now()
	if err := s.verifier.Verify(c.Commitment, p.Bytes(), now); err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: verify reveal: %w", err)
	}

	if p.Amount == 0 {
		return domain.Bet{}, fmt.Errorf("bet_service: zero amount: %w", domain.ErrInvalidAmount)
	}
	if p.Amount < s.bounds.Min {
		return domain.Bet{}, fmt.Errorf("bet_service: amount %d below minimum %d: %w", p.Amount, s.bounds.Min, domain.ErrBetTooSmall)
	}
	if s.bounds.Max > 0 && p.Amount > s.bounds.Max {
		return domain.Bet{}, fmt.Errorf("bet_service: amount %d above maximum %d: %w", p.Amount, s.bounds.Max, domain.ErrBetTooLarge)
	}

	// Pools are frozen once a resolution value is out in the open or the
	// market reached a terminal state.
	state, _, err := s.marketState(ctx, marketID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: reveal: %w", err)
	}
	switch state {
	case domain.StateOpen, domain.StateLocked, domain.StateResolutionCommitted:
	default:
		return domain.Bet{}, fmt.Errorf("bet_service: reveal on %s market: %w", state, domain.ErrMarketNotOpen)
	}

	staked := s.stakedAmount(ctx, bettor)
	b := domain.Bet{
		MarketID:        marketID,
		Bettor:          bettor,
		Nonce:           p.Nonce,
		Amount:          p.Amount,
		Side:            p.Side,
		EffectiveAmount: domain.EffectiveAmount(p.Amount, staked),
		PlacedAt:        now,
	}
	if err := s.bets.RevealBet(ctx, b); err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: reveal bet: %w", err)
	}
	invalidateMarket(ctx, s.cache, s.logger, marketID)

	s.logger.InfoContext(ctx, "bet revealed",
		slog.String("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("nonce", p.Nonce),
		slog.Uint64("amount", p.Amount),
		slog.Uint64("effective", b.EffectiveAmount),
		slog.String("side", string(p.Side)),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelBets, event(
		domain.EventBetRevealed, marketID, bettor, now, map[string]string{
			"nonce":  strconv.FormatUint(p.Nonce, 10),
			"amount": strconv.FormatUint(p.Amount, 10),
			"side":   string(p.Side),
		}))
	return b, nil
}

// GetBet returns a revealed bet.
func (s *BetService) GetBet(ctx context.Context, marketID, bettor string, nonce uint64) (domain.Bet, error) {
	b, err := s.bets.GetBet(ctx, marketID, bettor, nonce)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: get bet: %w", err)
	}
	return b, nil
}

// ListBets returns a market's revealed bets.
func (s *BetService) ListBets(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := s.bets.ListBetsByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list bets: %w", err)
	}
	return bets, nil
}

func (s *BetService) marketState(ctx context.Context, marketID string) (domain.MarketState, domain.Market, error) {
	m, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return "", domain.Market{}, fmt.Errorf("get market: %w", err)
	}
	var rc *domain.ResolutionCommitment
	if got, rcErr := s.oracles.GetResolutionCommitment(ctx, marketID); rcErr == nil {
		rc = &got
	} else if !isNotFound(rcErr) {
		return "", domain.Market{}, fmt.Errorf("get resolution: %w", rcErr)
	}
	return domain.DeriveState(m, rc, s.timing, s.clock.Now()), m, nil
}

// stakedAmount reads the bettor's staked balance for the bonus computation.
// A missing staker record means zero stake.
func (s *BetService) stakedAmount(ctx context.Context, bettor string) uint64 {
	staker, err := s.stakes.GetStaker(ctx, bettor)
	if err != nil {
		return 0
	}
	return staker.StakedAmount
}
