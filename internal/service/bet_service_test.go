package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

func TestBetCommitReveal(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)

	b := e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	require.Equal(t, uint64(1000), b.Amount)
	require.Equal(t, uint64(1000), b.EffectiveAmount)
	require.Equal(t, domain.SideYes, b.Side)

	got, err := e.bet.GetBet(context.Background(), m.ID, testBettor, 1)
	require.NoError(t, err)
	require.Equal(t, b, got)

	updated, err := e.store.Get(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), updated.YesTotal)
	require.Zero(t, updated.NoTotal)
}

func TestBetReveal_BitFlippedPreimage(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	p.Amount = 2000
	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, p)
	require.ErrorIs(t, err, domain.ErrInvalidCommitment)
}

func TestBetCommit_Duplicate(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.NoError(t, err)

	_, err = e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.ErrorIs(t, err, domain.ErrDuplicateCommitment)
}

func TestBetCommit_DistinctNoncesAllowed(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)

	e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.placeBet(t, m.ID, testBettor, 2, 500, domain.SideNo)

	bets, err := e.bet.ListBets(context.Background(), m.ID, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, bets, 2)
}

func TestBetReveal_TooEarly(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.NoError(t, err)

	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, p)
	require.ErrorIs(t, err, domain.ErrRevealTooEarly)
}

func TestBetReveal_TooLate(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5*time.Minute + time.Hour + time.Second)
	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, p)
	require.ErrorIs(t, err, domain.ErrRevealTooLate)
}

func TestBetReveal_Replay(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, p)
	require.NoError(t, err)

	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, p)
	require.ErrorIs(t, err, domain.ErrAlreadyRevealed)
}

func TestBetReveal_Bounds(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	small := crypto.BetPreimage{Amount: testMinBet - 1, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(small))
	require.NoError(t, err)

	large := crypto.BetPreimage{Amount: testMaxBet + 1, Side: domain.SideYes, Nonce: 2}
	_, err = e.bet.CommitBet(ctx, m.ID, testBettor, 2, betDigest(large))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, small)
	require.ErrorIs(t, err, domain.ErrBetTooSmall)

	_, err = e.bet.RevealBet(ctx, m.ID, testBettor, large)
	require.ErrorIs(t, err, domain.ErrBetTooLarge)
}

func TestBetCommit_ClosedMarket(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	e.clock.Advance(25 * time.Hour)
	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.ErrorIs(t, err, domain.ErrMarketNotOpen)
}

func TestBetReveal_StakingBonus(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	// 100_000_000 staked grants 100 bps, so 1000 becomes 1010 effective.
	require.NoError(t, e.staking.Stake(ctx, testBettor, 100_000_000))

	b := e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	require.Equal(t, uint64(1000), b.Amount)
	require.Equal(t, uint64(1010), b.EffectiveAmount)

	updated, err := e.store.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1010), updated.YesTotal)
}

func TestBetCommit_Paused(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	require.NoError(t, e.admin.SetPaused(ctx, testAuthority, true))

	p := crypto.BetPreimage{Amount: 1000, Side: domain.SideYes, Nonce: 1}
	_, err := e.bet.CommitBet(ctx, m.ID, testBettor, 1, betDigest(p))
	require.ErrorIs(t, err, domain.ErrProtocolPaused)
}
