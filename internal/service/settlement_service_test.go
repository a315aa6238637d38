package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/domain"
)

func TestClaim_WinnerTakesLosingPool(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.placeBet(t, m.ID, testBettor2, 1, 4000, domain.SideNo)

	e.resolveMarket(t, m, 2000, true) // YES wins

	s, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutWin, s.Kind)
	require.Equal(t, uint64(4000), s.GrossShare)
	require.Equal(t, uint64(120), s.Fee) // 3% of 4000
	require.Equal(t, uint64(1000+4000-120), s.Payout)

	// Fee split lands in the protocol ledgers.
	state, err := e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.Equal(t, s.Split.Stakers, state.RewardPool)
	require.Equal(t, s.Split.Treasury, state.TreasuryOwed)
	require.Equal(t, s.Split.Burn, state.TotalBurned)
	require.Equal(t, s.Fee, state.TotalFeesCollected)

	updated, err := e.store.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, s.Split.Creator, updated.CreatorFeesAccrued)
}

func TestClaim_LoserGetsNothing(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.placeBet(t, m.ID, testBettor2, 1, 4000, domain.SideNo)

	e.resolveMarket(t, m, 2000, true)

	s, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor2, 1)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutLoss, s.Kind)
	require.Zero(t, s.Payout)
}

func TestClaim_Twice(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.resolveMarket(t, m, 2000, true)

	_, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)

	_, err = e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestClaim_DuringDisputeWindow(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.resolveMarket(t, m, 2000, false)

	_, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.ErrorIs(t, err, domain.ErrDisputeWindowOpen)
}

func TestClaim_OpenMarket(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)

	_, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.ErrorIs(t, err, domain.ErrMarketNotResolved)
}

func TestClaim_TimedOutMarketRefunds(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	b := e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)

	// No oracle ever resolves; past the timeout the market cancels.
	e.clock.Set(m.ResolutionDeadline.Add(7*24*time.Hour + time.Second))

	s, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutRefund, s.Kind)
	require.Equal(t, b.Amount, s.Payout)
}

func TestClaim_RecordsTradedVolume(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	e.placeBet(t, m.ID, testBettor, 1, 5000, domain.SideYes)
	e.resolveMarket(t, m, 2000, true)

	_, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)

	staker, err := e.staking.GetStaker(ctx, testBettor)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), staker.TradedVolume)
}

func TestClaim_BonusDilutesPayout(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	// Equal face amounts, but bettor one's stake raises its effective share.
	require.NoError(t, e.staking.Stake(ctx, testBettor, 5_000_000_000)) // 50% bonus

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.placeBet(t, m.ID, testBettor2, 1, 1000, domain.SideYes)
	e.placeBet(t, m.ID, "0xC000000000000000000000000000000000000003", 1, 5000, domain.SideNo)

	e.resolveMarket(t, m, 2000, true)

	boosted, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)
	flat, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor2, 1)
	require.NoError(t, err)

	// Winning pool is 1500+1000 effective; gross shares 3000 vs 2000.
	require.Equal(t, uint64(3000), boosted.GrossShare)
	require.Equal(t, uint64(2000), flat.GrossShare)
	require.Greater(t, boosted.Payout, flat.Payout)
}
