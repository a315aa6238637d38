// Package parimutuel implements the settlement arithmetic for resolved
// markets: winners split the losing pool proportionally to their effective
// stake, a basis-point fee is taken from the winnings share only, and the fee
// is split across stakers, the market creator, the treasury, and burn.
//
// All monetary values are uint64 base units. Intermediate products use
// 256-bit integers so effective * losingPool never overflows.
package parimutuel

import (
	"github.com/holiman/uint256"

	"github.com/sealbet/sealbet/internal/domain"
)

// Fee parameters of the reference deployment, in basis points.
const (
	DefaultFeeBps uint64 = 300 // 3% of the winnings share

	StakerShareBps   uint64 = 5000
	CreatorShareBps  uint64 = 2500
	TreasuryShareBps uint64 = 1500
	BurnShareBps     uint64 = 1000

	bpsDenominator uint64 = 10_000
)

// MulDiv computes a*b/den with a 256-bit intermediate. den must be non-zero.
func MulDiv(a, b, den uint64) uint64 {
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	x.Div(x, uint256.NewInt(den))
	return x.Uint64()
}

// GrossShare returns a winning bet's parimutuel share of the losing pool:
// effective * losingPool / winningPool. A zero winning pool yields zero.
func GrossShare(effective, losingPool, winningPool uint64) uint64 {
	if winningPool == 0 {
		return 0
	}
	return MulDiv(effective, losingPool, winningPool)
}

// SplitFee divides a fee across its destinations. Integer truncation in the
// shares leaves any remainder dust with the treasury so the split always sums
// to the fee.
func SplitFee(fee uint64) domain.FeeSplit {
	split := domain.FeeSplit{
		Stakers: MulDiv(fee, StakerShareBps, bpsDenominator),
		Creator: MulDiv(fee, CreatorShareBps, bpsDenominator),
		Burn:    MulDiv(fee, BurnShareBps, bpsDenominator),
	}
	split.Treasury = fee - split.Stakers - split.Creator - split.Burn
	return split
}

// SettleWin computes the settlement for a winning bet. The bettor's principal
// is returned in full; only the winnings share is fee'd.
func SettleWin(b domain.Bet, winningPool, losingPool, feeBps uint64) domain.Settlement {
	gross := GrossShare(b.EffectiveAmount, losingPool, winningPool)
	fee := MulDiv(gross, feeBps, bpsDenominator)
	return domain.Settlement{
		Kind:       domain.PayoutWin,
		Payout:     b.Amount + gross - fee,
		GrossShare: gross,
		Fee:        fee,
		Split:      SplitFee(fee),
	}
}

// SettleLoss marks a losing bet settled with zero payout.
func SettleLoss() domain.Settlement {
	return domain.Settlement{Kind: domain.PayoutLoss}
}

// SettleRefund returns a cancelled-market bet's face amount, fee-free. The
// staking bonus never leaves the ledger, so refunds use the committed amount
// rather than the effective amount.
func SettleRefund(b domain.Bet) domain.Settlement {
	return domain.Settlement{
		Kind:   domain.PayoutRefund,
		Payout: b.Amount,
	}
}
