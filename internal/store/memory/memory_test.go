package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/domain"
)

const (
	testAuthority = "0xA000000000000000000000000000000000000001"
	testTreasury  = "0xA000000000000000000000000000000000000002"
	testBettor    = "0xC000000000000000000000000000000000000001"
)

func seedMarket(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.Create(context.Background(), domain.Market{
		ID:                 id,
		ProtocolID:         "solana",
		Metric:             domain.MetricTVL,
		Comparator:         domain.CompareGTE,
		TargetValue:        1_000,
		ResolutionDeadline: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Creator:            testAuthority,
	})
	require.NoError(t, err)
}

func commitAndReveal(t *testing.T, s *Store, marketID string, nonce, effective uint64, side domain.Side) error {
	t.Helper()
	ctx := context.Background()

	err := s.CreateCommitment(ctx, domain.BetCommitment{
		MarketID: marketID,
		Bettor:   testBettor,
		Nonce:    nonce,
	})
	require.NoError(t, err)

	return s.RevealBet(ctx, domain.Bet{
		MarketID:        marketID,
		Bettor:          testBettor,
		Nonce:           nonce,
		Amount:          effective,
		Side:            side,
		EffectiveAmount: effective,
	})
}

func TestRevealBet_PoolOverflow(t *testing.T) {
	s := New(testAuthority, testTreasury)
	seedMarket(t, s, "m1")

	require.NoError(t, commitAndReveal(t, s, "m1", 1, math.MaxUint64-10, domain.SideYes))

	// A second reveal pushing the yes pool past MaxUint64 is rejected and
	// leaves no bet behind.
	err := commitAndReveal(t, s, "m1", 2, 11, domain.SideYes)
	require.ErrorIs(t, err, domain.ErrAmountOverflow)
	_, err = s.GetBet(context.Background(), "m1", testBettor, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The other side's pool is unaffected by the yes total.
	require.NoError(t, commitAndReveal(t, s, "m1", 3, 11, domain.SideNo))

	m, err := s.Get(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64-10), m.YesTotal)
	require.Equal(t, uint64(11), m.NoTotal)
}

func TestDepositBond_Overflow(t *testing.T) {
	s := New(testAuthority, testTreasury)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.DepositBond(ctx, testBettor, math.MaxUint64-1, now))
	require.ErrorIs(t, s.DepositBond(ctx, testBettor, 2, now), domain.ErrAmountOverflow)

	bond, err := s.GetBond(ctx, testBettor)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64-1), bond.LockedAmount)
}

func TestStake_Overflow(t *testing.T) {
	s := New(testAuthority, testTreasury)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Stake(ctx, testBettor, math.MaxUint64-1, now))
	require.ErrorIs(t, s.Stake(ctx, testBettor, 2, now), domain.ErrAmountOverflow)

	staker, err := s.GetStaker(ctx, testBettor)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64-1), staker.StakedAmount)
}
