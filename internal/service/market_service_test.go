package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/domain"
)

func TestCreateMarket(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)

	require.NotEmpty(t, m.ID)
	require.Equal(t, domain.CompareGTE, m.Comparator)

	view, err := e.market.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateOpen, view.State)
	require.Nil(t, view.Resolution)
}

func TestCreateMarket_DefaultComparator(t *testing.T) {
	e := newEnv(t)
	m, err := e.market.CreateMarket(context.Background(), CreateMarketParams{
		ProtocolID:         "solana",
		Metric:             domain.MetricPrice,
		TargetValue:        100,
		ResolutionDeadline: e.clock.Now().Add(48 * time.Hour),
		Creator:            testCreator,
	})
	require.NoError(t, err)
	require.Equal(t, domain.CompareGTE, m.Comparator)
}

func TestCreateMarket_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	valid := CreateMarketParams{
		ProtocolID:         "solana",
		Metric:             domain.MetricTVL,
		TargetValue:        1_000,
		ResolutionDeadline: e.clock.Now().Add(48 * time.Hour),
		Creator:            testCreator,
	}

	cases := []struct {
		name   string
		mutate func(*CreateMarketParams)
		want   error
	}{
		{"empty protocol id", func(p *CreateMarketParams) { p.ProtocolID = "" }, domain.ErrInvalidInput},
		{"protocol id too long", func(p *CreateMarketParams) { p.ProtocolID = strings.Repeat("x", MaxProtocolIDLen+1) }, domain.ErrInvalidInput},
		{"description too long", func(p *CreateMarketParams) { p.Description = strings.Repeat("x", MaxDescriptionLen+1) }, domain.ErrInvalidInput},
		{"deadline inside horizon", func(p *CreateMarketParams) { p.ResolutionDeadline = e.clock.Now().Add(time.Hour) }, domain.ErrInvalidDeadline},
		{"deadline in the past", func(p *CreateMarketParams) { p.ResolutionDeadline = e.clock.Now().Add(-time.Hour) }, domain.ErrInvalidDeadline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			_, err := e.market.CreateMarket(ctx, p)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateMarket_Paused(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.admin.SetPaused(ctx, testAuthority, true))
	_, err := e.market.CreateMarket(ctx, CreateMarketParams{
		ProtocolID:         "solana",
		Metric:             domain.MetricTVL,
		TargetValue:        1,
		ResolutionDeadline: e.clock.Now().Add(48 * time.Hour),
		Creator:            testCreator,
	})
	require.ErrorIs(t, err, domain.ErrProtocolPaused)
}

func TestListMarkets(t *testing.T) {
	e := newEnv(t)
	e.createMarket(t, 30*time.Hour)
	e.createMarket(t, 40*time.Hour)
	e.createMarket(t, 50*time.Hour)

	views, err := e.market.ListMarkets(context.Background(), domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, views, 2)

	views, err = e.market.ListMarkets(context.Background(), domain.ListOpts{Limit: 10, Offset: 2})
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestGetMarket_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.market.GetMarket(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetMarket_CacheDroppedOnDispute(t *testing.T) {
	cache := newFakeMarketCache()
	e := newEnvWithCache(t, cache)
	ctx := context.Background()

	m := e.createMarket(t, 48*time.Hour)
	e.placeBet(t, m.ID, testBettor, 1, 400, domain.SideYes)
	e.resolveMarket(t, m, 2_000, false)

	// Prime the cache with the pre-dispute snapshot.
	view, err := e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolutionRevealed, view.State)

	require.NoError(t, e.oracle.Dispute(ctx, m.ID, testAuthority))

	// The cancelled flag must come from the store, not the cached
	// snapshot, even within the cache TTL.
	view, err = e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, view.Market.Cancelled)
	require.Equal(t, domain.StateCancelled, view.State)
}

func TestGetMarket_CacheDroppedOnBetReveal(t *testing.T) {
	cache := newFakeMarketCache()
	e := newEnvWithCache(t, cache)
	ctx := context.Background()

	m := e.createMarket(t, 48*time.Hour)

	// Prime the cache with empty pools.
	view, err := e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.Zero(t, view.Market.YesTotal)

	b := e.placeBet(t, m.ID, testBettor, 1, 400, domain.SideYes)

	view, err = e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, b.EffectiveAmount, view.Market.YesTotal)
}
