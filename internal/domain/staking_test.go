package domain

import "testing"

func TestStakeBonusBps(t *testing.T) {
	cases := []struct {
		staked uint64
		want   uint64
	}{
		{0, 0},
		{999_999, 0},
		{1_000_000, 1},
		{50_000_000, 50},
		{5_000_000_000, 5000},
		{6_000_000_000, 5000}, // capped
	}
	for _, tc := range cases {
		if got := StakeBonusBps(tc.staked); got != tc.want {
			t.Errorf("StakeBonusBps(%d)=%d want %d", tc.staked, got, tc.want)
		}
	}
}

func TestEffectiveAmount(t *testing.T) {
	// 100 bps bonus on 1000 adds 10.
	if got := EffectiveAmount(1000, 100_000_000); got != 1010 {
		t.Fatalf("effective=%d want 1010", got)
	}
	// No stake, no bonus.
	if got := EffectiveAmount(1000, 0); got != 1000 {
		t.Fatalf("effective=%d want 1000", got)
	}
	// Max bonus is 50%.
	if got := EffectiveAmount(1000, 100_000_000_000); got != 1500 {
		t.Fatalf("effective=%d want 1500", got)
	}
}

func TestBadgeRequirement(t *testing.T) {
	volume, veGrant, ok := BadgeRequirement(BadgeBronze)
	if !ok || volume != 1_000 || veGrant != 50_000 {
		t.Fatalf("bronze=%d/%d ok=%v", volume, veGrant, ok)
	}
	volume, veGrant, ok = BadgeRequirement(BadgeDiamond)
	if !ok || volume != 1_000_000 || veGrant != 20_000_000 {
		t.Fatalf("diamond=%d/%d ok=%v", volume, veGrant, ok)
	}
	if _, _, ok := BadgeRequirement(BadgeNone); ok {
		t.Fatalf("BadgeNone should not resolve")
	}
	if _, _, ok := BadgeRequirement(BadgeTier("wood")); ok {
		t.Fatalf("unknown tier should not resolve")
	}
}

func TestBadgeTiers_MonotonicRequirements(t *testing.T) {
	tiers := []BadgeTier{BadgeBronze, BadgeSilver, BadgeGold, BadgePlatinum, BadgeDiamond}
	var prevVolume, prevGrant uint64
	for _, tier := range tiers {
		volume, veGrant, ok := BadgeRequirement(tier)
		if !ok {
			t.Fatalf("tier %q missing", tier)
		}
		if volume <= prevVolume || veGrant <= prevGrant {
			t.Fatalf("tier %q not monotonic: volume=%d grant=%d", tier, volume, veGrant)
		}
		prevVolume, prevGrant = volume, veGrant
	}
}

func TestSideByteRoundTrip(t *testing.T) {
	if SideFromByte(SideYes.Byte()) != SideYes {
		t.Fatalf("yes side did not round trip")
	}
	if SideFromByte(SideNo.Byte()) != SideNo {
		t.Fatalf("no side did not round trip")
	}
}
