package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sealbet/sealbet/internal/domain"
)

// Market creation limits of the reference deployment.
const (
	MaxProtocolIDLen  = 32
	MaxDescriptionLen = 200
)

// CreateMarketParams are the caller-supplied fields of a new market.
type CreateMarketParams struct {
	ProtocolID         string
	Metric             domain.MetricKind
	Comparator         domain.Comparator
	TargetValue        uint64
	ResolutionDeadline time.Time
	Description        string
	Creator            string
}

// MarketView pairs a market with its derived state and resolution commitment
// at read time.
type MarketView struct {
	Market     domain.Market
	State      domain.MarketState
	Resolution *domain.ResolutionCommitment
}

// MarketService handles market creation and state-aware reads.
type MarketService struct {
	markets    domain.MarketStore
	oracles    domain.OracleStore
	protocol   domain.ProtocolStore
	cache      domain.MarketCache
	bus        domain.SignalBus
	clock      domain.Clock
	timing     domain.MarketTiming
	minHorizon time.Duration
	logger     *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	markets domain.MarketStore,
	oracles domain.OracleStore,
	protocol domain.ProtocolStore,
	cache domain.MarketCache,
	bus domain.SignalBus,
	clock domain.Clock,
	timing domain.MarketTiming,
	minHorizon time.Duration,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		markets:    markets,
		oracles:    oracles,
		protocol:   protocol,
		cache:      cache,
		bus:        bus,
		clock:      clock,
		timing:     timing,
		minHorizon: minHorizon,
		logger:     logger,
	}
}

// CreateMarket validates the parameters and persists a new market in the Open
// state. The resolution deadline must leave at least the minimum horizon from
// now.
func (s *MarketService) CreateMarket(ctx context.Context, p CreateMarketParams) (domain.Market, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create: %w", err)
	}

	now := s.clock.Now()
	if p.ProtocolID == "" || len(p.ProtocolID) > MaxProtocolIDLen {
		return domain.Market{}, fmt.Errorf("market_service: protocol id: %w", domain.ErrInvalidInput)
	}
	if len(p.Description) > MaxDescriptionLen {
		return domain.Market{}, fmt.Errorf("market_service: description: %w", domain.ErrInvalidInput)
	}
	if p.ResolutionDeadline.Before(now.Add(s.minHorizon)) {
		return domain.Market{}, fmt.Errorf("market_service: deadline within %s horizon: %w", s.minHorizon, domain.ErrInvalidDeadline)
	}

	comparator := p.Comparator
	if comparator == "" {
		comparator = domain.CompareGTE
	}

	m := domain.Market{
		ID:                 uuid.NewString(),
		ProtocolID:         p.ProtocolID,
		Metric:             p.Metric,
		Comparator:         comparator,
		TargetValue:        p.TargetValue,
		ResolutionDeadline: p.ResolutionDeadline.UTC(),
		Description:        p.Description,
		Creator:            p.Creator,
		CreatedAt:          now,
	}
	if err := s.markets.Create(ctx, m); err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create market: %w", err)
	}

	s.logger.InfoContext(ctx, "market created",
		slog.String("market_id", m.ID),
		slog.String("protocol_id", m.ProtocolID),
		slog.String("metric", string(m.Metric)),
		slog.Time("deadline", m.ResolutionDeadline),
	)
	publishEvent(ctx, s.bus, s.logger, domain.ChannelMarkets, event(
		domain.EventMarketCreated, m.ID, p.Creator, now, map[string]string{
			"protocol_id": m.ProtocolID,
			"metric":      string(m.Metric),
		}))
	return m, nil
}

// GetMarket retrieves the market with its derived state, checking the cache
// first and falling back to the store on a miss.
func (s *MarketService) GetMarket(ctx context.Context, id string) (MarketView, error) {
	m, err := s.cachedMarket(ctx, id)
	if err != nil {
		return MarketView{}, fmt.Errorf("market_service: get %q: %w", id, err)
	}
	rc, err := s.resolution(ctx, id)
	if err != nil {
		return MarketView{}, fmt.Errorf("market_service: get resolution %q: %w", id, err)
	}
	return MarketView{
		Market:     m,
		State:      domain.DeriveState(m, rc, s.timing, s.clock.Now()),
		Resolution: rc,
	}, nil
}

// ListMarkets returns markets with derived states, newest first.
func (s *MarketService) ListMarkets(ctx context.Context, opts domain.ListOpts) ([]MarketView, error) {
	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list: %w", err)
	}

	now := s.clock.Now()
	views := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		rc, err := s.resolution(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("market_service: list resolution %q: %w", m.ID, err)
		}
		views = append(views, MarketView{
			Market:     m,
			State:      domain.DeriveState(m, rc, s.timing, now),
			Resolution: rc,
		})
	}
	return views, nil
}

func (s *MarketService) cachedMarket(ctx context.Context, id string) (domain.Market, error) {
	if s.cache != nil {
		if m, err := s.cache.Get(ctx, id); err == nil {
			return m, nil
		}
	}
	m, err := s.markets.Get(ctx, id)
	if err != nil {
		return domain.Market{}, err
	}
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
			s.logger.WarnContext(ctx, "market cache set failed",
				slog.String("market_id", id),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return m, nil
}

func (s *MarketService) resolution(ctx context.Context, marketID string) (*domain.ResolutionCommitment, error) {
	rc, err := s.oracles.GetResolutionCommitment(ctx, marketID)
	switch {
	case err == nil:
		return &rc, nil
	case isNotFound(err):
		return nil, nil
	default:
		return nil, err
	}
}
