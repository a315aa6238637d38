package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sealbet/sealbet/internal/commitment"
	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/parimutuel"
)

// OracleParams are the economic parameters of the oracle role.
type OracleParams struct {
	BondAmount    uint64        // minimum locked bond to commit resolutions
	SlashPercent  uint64        // bond percentage slashed by a dispute
	DisputeWindow time.Duration // challenge period after a resolution reveal
}

// OracleService manages oracle bonds and the resolution commit-reveal flow.
type OracleService struct {
	oracles  domain.OracleStore
	markets  domain.MarketStore
	protocol domain.ProtocolStore
	verifier *commitment.Verifier
	cache    domain.MarketCache
	bus      domain.SignalBus
	clock    domain.Clock
	timing   domain.MarketTiming
	params   OracleParams
	logger   *slog.Logger
}

// NewOracleService creates an OracleService with all required dependencies.
// The verifier carries the resolution commit and reveal windows; cache and
// bus may be nil.
func NewOracleService(
	oracles domain.OracleStore,
	markets domain.MarketStore,
	protocol domain.ProtocolStore,
	verifier *commitment.Verifier,
	cache domain.MarketCache,
	bus domain.SignalBus,
	clock domain.Clock,
	timing domain.MarketTiming,
	params OracleParams,
	logger *slog.Logger,
) *OracleService {
	return &OracleService{
		oracles:  oracles,
		markets:  markets,
		protocol: protocol,
		verifier: verifier,
		cache:    cache,
		bus:      bus,
		clock:    clock,
		timing:   timing,
		params:   params,
		logger:   logger,
	}
}

// DepositBond locks bond collateral for an oracle. The first deposit must
// reach the minimum bond; later deposits top the bond up.
func (s *OracleService) DepositBond(ctx context.Context, oracle string, amount uint64) (domain.OracleBond, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: deposit bond: %w", err)
	}
	if amount == 0 {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: zero deposit: %w", domain.ErrInvalidAmount)
	}
	if _, err := s.oracles.GetBond(ctx, oracle); isNotFound(err) && amount < s.params.BondAmount {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: first deposit %d below bond %d: %w",
			amount, s.params.BondAmount, domain.ErrInsufficientOracleBond)
	}

	now := s.clock.Now()
	if err := s.oracles.DepositBond(ctx, oracle, amount, now); err != nil {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: deposit bond: %w", err)
	}
	bond, err := s.oracles.GetBond(ctx, oracle)
	if err != nil {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: get bond: %w", err)
	}

	s.logger.InfoContext(ctx, "oracle bond deposited",
		slog.String("oracle", oracle),
		slog.Uint64("amount", amount),
		slog.Uint64("locked", bond.LockedAmount),
	)
	return bond, nil
}

// GetBond returns an oracle's bond record.
func (s *OracleService) GetBond(ctx context.Context, oracle string) (domain.OracleBond, error) {
	bond, err := s.oracles.GetBond(ctx, oracle)
	if err != nil {
		return domain.OracleBond{}, fmt.Errorf("oracle_service: get bond: %w", err)
	}
	return bond, nil
}

// WithdrawBond releases the oracle's full bond. It fails while any of the
// oracle's resolution commitments is still live or still disputable.
func (s *OracleService) WithdrawBond(ctx context.Context, oracle string) (uint64, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return 0, fmt.Errorf("oracle_service: withdraw bond: %w", err)
	}

	now := s.clock.Now()
	liveAfter := now.Add(-(s.timing.ResolutionCommitWindow + s.timing.ResolutionRevealWindow))
	released, err := s.oracles.WithdrawBond(ctx, oracle, liveAfter, now)
	if err != nil {
		return 0, fmt.Errorf("oracle_service: withdraw bond: %w", err)
	}

	s.logger.InfoContext(ctx, "oracle bond withdrawn",
		slog.String("oracle", oracle),
		slog.Uint64("released", released),
	)
	return released, nil
}

// CommitResolution records the oracle's sealed resolution for a locked
// market. The oracle must hold an unslashed bond at the minimum amount, and
// the market's deadline must have passed. A dead prior commitment is
// superseded; a live one blocks the commit.
func (s *OracleService) CommitResolution(ctx context.Context, marketID, oracle string, digest [32]byte) (domain.ResolutionCommitment, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: commit resolution: %w", err)
	}

	bond, err := s.oracles.GetBond(ctx, oracle)
	if err != nil {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: get bond: %w", err)
	}
	if bond.Slashed {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: commit resolution: %w", domain.ErrOracleSlashed)
	}
	if bond.LockedAmount < s.params.BondAmount {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: bond %d below %d: %w",
			bond.LockedAmount, s.params.BondAmount, domain.ErrInsufficientOracleBond)
	}

	m, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: get market: %w", err)
	}
	now := s.clock.Now()
	if now.Before(m.ResolutionDeadline) {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: market open until %s: %w",
			m.ResolutionDeadline, domain.ErrResolutionTooEarly)
	}
	if state := s.deriveState(ctx, m, now); state.Terminal() {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: commit on %s market: %w", state, domain.ErrMarketResolved)
	}

	rc := domain.ResolutionCommitment{
		Commitment: domain.Commitment{Digest: digest, CommittedAt: now},
		MarketID:   marketID,
		Oracle:     oracle,
	}
	liveAfter := now.Add(-(s.timing.ResolutionCommitWindow + s.timing.ResolutionRevealWindow))
	if err := s.oracles.CreateResolutionCommitment(ctx, rc, liveAfter); err != nil {
		return domain.ResolutionCommitment{}, fmt.Errorf("oracle_service: create resolution commitment: %w", err)
	}

	s.logger.InfoContext(ctx, "resolution committed",
		slog.String("market_id", marketID),
		slog.String("oracle", oracle),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelResolutions, event(
		domain.EventResolutionCommitted, marketID, oracle, now, nil))
	return rc, nil
}

// RevealResolution opens the oracle's sealed resolution. The preimage must
// reproduce the committed digest inside the reveal window. On success the
// market's outcome is fixed from the comparator and the dispute window opens.
func (s *OracleService) RevealResolution(ctx context.Context, marketID, oracle string, p crypto.ResolutionPreimage) (domain.Market, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: reveal resolution: %w", err)
	}

	rc, err := s.oracles.GetResolutionCommitment(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: get resolution commitment: %w", err)
	}
	if rc.Oracle != oracle {
		return domain.Market{}, fmt.Errorf("oracle_service: reveal by %s of commitment by %s: %w",
			oracle, rc.Oracle, domain.ErrUnauthorized)
	}

	now := s.clock.Now()
	if err := s.verifier.Verify(rc.Commitment, p.Bytes(), now); err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: verify reveal: %w", err)
	}

	m, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: get market: %w", err)
	}
	if state := s.derivedWith(m, &rc, now); state.Terminal() {
		return domain.Market{}, fmt.Errorf("oracle_service: reveal on %s market: %w", state, domain.ErrMarketResolved)
	}

	outcome := m.Comparator.Outcome(p.Value, m.TargetValue)
	disputeDeadline := now.Add(s.params.DisputeWindow)
	if err := s.oracles.RevealResolution(ctx, marketID, p.Value, outcome, now, disputeDeadline); err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: reveal resolution: %w", err)
	}
	invalidateMarket(ctx, s.cache, s.logger, marketID)

	m, err = s.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("oracle_service: get market: %w", err)
	}

	s.logger.InfoContext(ctx, "resolution revealed",
		slog.String("market_id", marketID),
		slog.String("oracle", oracle),
		slog.Uint64("value", p.Value),
		slog.Bool("outcome", outcome),
		slog.Time("dispute_deadline", disputeDeadline),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelResolutions, event(
		domain.EventResolutionRevealed, marketID, oracle, now, map[string]string{
			"value":   strconv.FormatUint(p.Value, 10),
			"outcome": strconv.FormatBool(outcome),
		}))
	return m, nil
}

// Dispute challenges a revealed resolution during its dispute window. Only
// the protocol authority may dispute. A successful dispute cancels the market
// and slashes the configured share of the oracle's bond into the insurance
// fund in the same store operation.
//
// Dispute deliberately skips the pause guard. The dispute window keeps
// running while the protocol is paused, and a fraudulent resolution must
// remain challengeable before the window lapses and finalizes it.
func (s *OracleService) Dispute(ctx context.Context, marketID, caller string) error {
	if err := ensureAuthority(ctx, s.protocol, caller); err != nil {
		return fmt.Errorf("oracle_service: dispute: %w", err)
	}

	rc, err := s.oracles.GetResolutionCommitment(ctx, marketID)
	if err != nil {
		return fmt.Errorf("oracle_service: get resolution commitment: %w", err)
	}
	m, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return fmt.Errorf("oracle_service: get market: %w", err)
	}

	now := s.clock.Now()
	state := s.derivedWith(m, &rc, now)
	switch state {
	case domain.StateResolutionRevealed:
	case domain.StateResolved, domain.StateCancelled:
		return fmt.Errorf("oracle_service: dispute on %s market: %w", state, domain.ErrMarketResolved)
	default:
		return fmt.Errorf("oracle_service: dispute on %s market: %w", state, domain.ErrMarketNotResolved)
	}

	bond, err := s.oracles.GetBond(ctx, rc.Oracle)
	if err != nil {
		return fmt.Errorf("oracle_service: get bond: %w", err)
	}
	slashAmount := parimutuel.MulDiv(bond.LockedAmount, s.params.SlashPercent, 100)
	if err := s.oracles.DisputeAndSlash(ctx, marketID, rc.Oracle, slashAmount); err != nil {
		return fmt.Errorf("oracle_service: dispute and slash: %w", err)
	}
	invalidateMarket(ctx, s.cache, s.logger, marketID)

	s.logger.WarnContext(ctx, "resolution disputed",
		slog.String("market_id", marketID),
		slog.String("oracle", rc.Oracle),
		slog.Uint64("slashed", slashAmount),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelResolutions, event(
		domain.EventResolutionDisputed, marketID, caller, now, map[string]string{
			"oracle":  rc.Oracle,
			"slashed": strconv.FormatUint(slashAmount, 10),
		}))
	return nil
}

func (s *OracleService) deriveState(ctx context.Context, m domain.Market, now time.Time) domain.MarketState {
	var rc *domain.ResolutionCommitment
	if got, err := s.oracles.GetResolutionCommitment(ctx, m.ID); err == nil {
		rc = &got
	}
	return domain.DeriveState(m, rc, s.timing, now)
}

func (s *OracleService) derivedWith(m domain.Market, rc *domain.ResolutionCommitment, now time.Time) domain.MarketState {
	return domain.DeriveState(m, rc, s.timing, now)
}
