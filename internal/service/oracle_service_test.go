package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

func TestDepositBond_FirstDepositBelowMinimum(t *testing.T) {
	e := newEnv(t)
	_, err := e.oracle.DepositBond(context.Background(), testOracle, testBondAmount-1)
	require.ErrorIs(t, err, domain.ErrInsufficientOracleBond)
}

func TestDepositBond_TopUp(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.oracle.DepositBond(ctx, testOracle, testBondAmount)
	require.NoError(t, err)

	// Top-ups may be any size once the bond exists.
	bond, err := e.oracle.DepositBond(ctx, testOracle, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(testBondAmount+1), bond.LockedAmount)
}

func TestCommitResolution_BeforeDeadline(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 48*time.Hour)
	ctx := context.Background()

	_, err := e.oracle.DepositBond(ctx, testOracle, testBondAmount)
	require.NoError(t, err)

	p := crypto.ResolutionPreimage{Value: 2000, Nonce: 1}
	_, err = e.oracle.CommitResolution(ctx, m.ID, testOracle, resolutionDigest(p))
	require.ErrorIs(t, err, domain.ErrResolutionTooEarly)
}

func TestCommitResolution_WithoutBond(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	e.clock.Set(m.ResolutionDeadline)
	p := crypto.ResolutionPreimage{Value: 2000, Nonce: 1}
	_, err := e.oracle.CommitResolution(ctx, m.ID, testOracle, resolutionDigest(p))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolutionFlow_OutcomeFromComparator(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)

	// Market target is 1000 GTE; revealed value 2000 resolves YES.
	e.resolveMarket(t, m, 2000, false)

	view, err := e.market.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolutionRevealed, view.State)
	require.NotNil(t, view.Market.Outcome)
	require.True(t, *view.Market.Outcome)
	require.Equal(t, uint64(2000), *view.Market.RevealedValue)
}

func TestResolutionFlow_ResolvesAfterDisputeWindow(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)

	// Revealed value 500 under a GTE 1000 target resolves NO.
	e.resolveMarket(t, m, 500, true)

	view, err := e.market.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolved, view.State)
	require.False(t, *view.Market.Outcome)
}

func TestRevealResolution_WrongOracle(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	_, err := e.oracle.DepositBond(ctx, testOracle, testBondAmount)
	require.NoError(t, err)

	e.clock.Set(m.ResolutionDeadline)
	p := crypto.ResolutionPreimage{Value: 2000, Nonce: 1}
	_, err = e.oracle.CommitResolution(ctx, m.ID, testOracle, resolutionDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	_, err = e.oracle.RevealResolution(ctx, m.ID, testBettor, p)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDispute_SlashesAndCancels(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	b := e.placeBet(t, m.ID, testBettor, 1, 1000, domain.SideYes)
	e.resolveMarket(t, m, 2000, false)

	require.NoError(t, e.oracle.Dispute(ctx, m.ID, testAuthority))

	// Half the bond moves into the insurance fund.
	bond, err := e.oracle.GetBond(ctx, testOracle)
	require.NoError(t, err)
	require.True(t, bond.Slashed)
	require.Equal(t, uint64(testBondAmount/2), bond.SlashedAmount)
	require.Equal(t, uint64(testBondAmount/2), bond.LockedAmount)

	state, err := e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(testBondAmount/2), state.InsuranceFund)

	// The cancelled market refunds face amounts fee-free.
	view, err := e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateCancelled, view.State)

	settlement, err := e.settlement.ClaimWinnings(ctx, m.ID, testBettor, 1)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutRefund, settlement.Kind)
	require.Equal(t, b.Amount, settlement.Payout)
}

func TestDispute_AfterWindowClosed(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)

	e.resolveMarket(t, m, 2000, true)

	err := e.oracle.Dispute(context.Background(), m.ID, testAuthority)
	require.ErrorIs(t, err, domain.ErrMarketResolved)
}

func TestDispute_NonAuthority(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)

	e.resolveMarket(t, m, 2000, false)

	err := e.oracle.Dispute(context.Background(), m.ID, testBettor)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDispute_WhilePaused(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	e.resolveMarket(t, m, 2000, false)
	require.NoError(t, e.admin.SetPaused(ctx, testAuthority, true))

	// The dispute window keeps running during a pause, so the authority
	// must still be able to challenge before it lapses.
	require.NoError(t, e.oracle.Dispute(ctx, m.ID, testAuthority))

	view, err := e.market.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateCancelled, view.State)
}

func TestDispute_SlashOfHugeBond(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	// A bond this size would overflow a naive locked*percent product.
	const bond = uint64(math.MaxUint64 / 2)
	_, err := e.oracle.DepositBond(ctx, testOracle, bond)
	require.NoError(t, err)

	e.resolveMarket(t, m, 2000, false)
	require.NoError(t, e.oracle.Dispute(ctx, m.ID, testAuthority))

	state, err := e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.Equal(t, bond/2, state.InsuranceFund)
}

func TestSlashedOracle_CannotCommit(t *testing.T) {
	e := newEnv(t)
	first := e.createMarket(t, 25*time.Hour)
	second := e.createMarket(t, 26*time.Hour)
	ctx := context.Background()

	e.resolveMarket(t, first, 2000, false)
	require.NoError(t, e.oracle.Dispute(ctx, first.ID, testAuthority))

	e.clock.Set(second.ResolutionDeadline)
	p := crypto.ResolutionPreimage{Value: 2000, Nonce: 2}
	_, err := e.oracle.CommitResolution(ctx, second.ID, testOracle, resolutionDigest(p))
	require.ErrorIs(t, err, domain.ErrOracleSlashed)
}

func TestWithdrawBond_BlockedDuringDispute(t *testing.T) {
	e := newEnv(t)
	m := e.createMarket(t, 25*time.Hour)
	ctx := context.Background()

	e.resolveMarket(t, m, 2000, false)

	// Dispute window still open: the bond backs a disputable resolution.
	_, err := e.oracle.WithdrawBond(ctx, testOracle)
	require.ErrorIs(t, err, domain.ErrDisputeWindowOpen)

	e.clock.Advance(time.Hour + time.Second)
	released, err := e.oracle.WithdrawBond(ctx, testOracle)
	require.NoError(t, err)
	require.Equal(t, uint64(testBondAmount), released)

	bond, err := e.oracle.GetBond(ctx, testOracle)
	require.NoError(t, err)
	require.Zero(t, bond.LockedAmount)
}
