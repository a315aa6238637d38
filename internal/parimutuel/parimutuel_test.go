package parimutuel

import (
	"testing"

	"github.com/sealbet/sealbet/internal/domain"
)

func TestGrossShare_ReferenceExample(t *testing.T) {
	// 100 effective against a 1000 YES / 4000 NO market, YES wins:
	// share = 100 * 4000 / 1000 = 400.
	got := GrossShare(100, 4000, 1000)
	if got != 400 {
		t.Fatalf("gross=%d want 400", got)
	}
}

func TestGrossShare_ZeroWinningPool(t *testing.T) {
	if got := GrossShare(100, 4000, 0); got != 0 {
		t.Fatalf("gross=%d want 0", got)
	}
}

func TestGrossShare_NoOverflow(t *testing.T) {
	// effective * losingPool overflows uint64; the 256-bit intermediate must
	// still produce the exact quotient.
	effective := uint64(1 << 62)
	losing := uint64(1 << 62)
	winning := uint64(1 << 61)
	if got := GrossShare(effective, losing, winning); got != 1<<63 {
		t.Fatalf("gross=%d want %d", got, uint64(1)<<63)
	}
}

func TestSettleWin_ReferenceExample(t *testing.T) {
	b := domain.Bet{Amount: 100, EffectiveAmount: 100}
	s := SettleWin(b, 1000, 4000, DefaultFeeBps)
	if s.Kind != domain.PayoutWin {
		t.Fatalf("kind=%q want win", s.Kind)
	}
	if s.GrossShare != 400 {
		t.Fatalf("gross=%d want 400", s.GrossShare)
	}
	if s.Fee != 12 {
		t.Fatalf("fee=%d want 12", s.Fee)
	}
	if s.Payout != 100+400-12 {
		t.Fatalf("payout=%d want 488", s.Payout)
	}
}

func TestSettleWin_PrincipalNeverFeed(t *testing.T) {
	// Winner of an empty losing pool pays no fee and gets the principal back.
	b := domain.Bet{Amount: 500, EffectiveAmount: 500}
	s := SettleWin(b, 1000, 0, DefaultFeeBps)
	if s.Fee != 0 || s.Payout != 500 {
		t.Fatalf("fee=%d payout=%d want 0/500", s.Fee, s.Payout)
	}
}

func TestSplitFee_SumsToFee(t *testing.T) {
	for _, fee := range []uint64{0, 1, 3, 12, 99, 10_000, 123_456_789} {
		split := SplitFee(fee)
		sum := split.Stakers + split.Creator + split.Treasury + split.Burn
		if sum != fee {
			t.Errorf("fee=%d split sums to %d", fee, sum)
		}
	}
}

func TestSplitFee_DustGoesToTreasury(t *testing.T) {
	// fee=3: stakers=1, creator=0, burn=0, treasury absorbs the remainder 2.
	split := SplitFee(3)
	if split.Stakers != 1 || split.Creator != 0 || split.Burn != 0 || split.Treasury != 2 {
		t.Fatalf("split=%+v", split)
	}
}

func TestSettleRefund_UsesFaceAmount(t *testing.T) {
	b := domain.Bet{Amount: 100, EffectiveAmount: 150}
	s := SettleRefund(b)
	if s.Kind != domain.PayoutRefund || s.Payout != 100 || s.Fee != 0 {
		t.Fatalf("settlement=%+v", s)
	}
}

func TestSettleLoss(t *testing.T) {
	s := SettleLoss()
	if s.Kind != domain.PayoutLoss || s.Payout != 0 {
		t.Fatalf("settlement=%+v", s)
	}
}

// Conservation: total payouts never exceed total principal in the market.
func TestSettlement_Conservation(t *testing.T) {
	// Two equal winners split the losing pool exactly.
	winningPool := uint64(200)
	losingPool := uint64(1000)
	a := domain.Bet{Amount: 100, EffectiveAmount: 100}
	b := domain.Bet{Amount: 100, EffectiveAmount: 100}

	sa := SettleWin(a, winningPool, losingPool, DefaultFeeBps)
	sb := SettleWin(b, winningPool, losingPool, DefaultFeeBps)

	paid := sa.Payout + sb.Payout + sa.Fee + sb.Fee
	total := a.Amount + b.Amount + losingPool
	if paid > total {
		t.Fatalf("paid %d exceeds pool total %d", paid, total)
	}
	if sa.GrossShare != 500 || sb.GrossShare != 500 {
		t.Fatalf("gross=%d,%d want 500 each", sa.GrossShare, sb.GrossShare)
	}
}
