package domain

import "time"

// MaxStakeBonusBps caps the staking bonus applied to a bet's effective amount.
const MaxStakeBonusBps = 5000

// StakeBonusBps returns the effective-amount bonus in basis points for a
// staker: one basis point per million staked base units, capped at 50%.
func StakeBonusBps(stakedAmount uint64) uint64 {
	bps := stakedAmount / 1_000_000
	if bps > MaxStakeBonusBps {
		return MaxStakeBonusBps
	}
	return bps
}

// EffectiveAmount applies the staking bonus to a bet amount. The bonus dilutes
// the opposing pool's payout share; no extra principal enters the market.
func EffectiveAmount(amount, stakedAmount uint64) uint64 {
	bonus := StakeBonusBps(stakedAmount)
	return amount + amount*bonus/10_000
}

// StakerAccount tracks a user's staked balance and the traded volume recorded
// by claims, which gates badge issuance.
type StakerAccount struct {
	Owner        string
	StakedAmount uint64
	TradedVolume uint64
	LastStakeAt  time.Time
}

// VePosition is a vote-escrow lock over a staker's balance. While the lock is
// active the locked stake cannot be withdrawn.
type VePosition struct {
	Owner       string
	LockedStake uint64
	VeAmount    uint64
	LockStart   time.Time
	LockEnd     time.Time
}

// Vote-escrow lock duration bounds.
const (
	MinVeLockDuration = 7 * 24 * time.Hour
	MaxVeLockDuration = 4 * 365 * 24 * time.Hour
)

// BadgeTier ranks users by verified traded volume.
type BadgeTier string

const (
	BadgeNone     BadgeTier = ""
	BadgeBronze   BadgeTier = "bronze"
	BadgeSilver   BadgeTier = "silver"
	BadgeGold     BadgeTier = "gold"
	BadgePlatinum BadgeTier = "platinum"
	BadgeDiamond  BadgeTier = "diamond"
)

// badgeRequirements maps each tier to its required traded volume and the
// vote-escrow power it grants.
var badgeRequirements = map[BadgeTier]struct{ Volume, VeGrant uint64 }{
	BadgeBronze:   {1_000, 50_000},
	BadgeSilver:   {10_000, 250_000},
	BadgeGold:     {100_000, 1_000_000},
	BadgePlatinum: {500_000, 5_000_000},
	BadgeDiamond:  {1_000_000, 20_000_000},
}

// BadgeRequirement returns the traded-volume threshold and vote-escrow grant
// for a tier. Unknown tiers (including BadgeNone) return zeros and ok=false.
func BadgeRequirement(tier BadgeTier) (volume, veGrant uint64, ok bool) {
	req, ok := badgeRequirements[tier]
	return req.Volume, req.VeGrant, ok
}

// VolumeBadge is an authority-issued badge granting vote-escrow power based
// on verified traded volume.
type VolumeBadge struct {
	Owner    string
	Tier     BadgeTier
	Volume   uint64
	VeAmount uint64
	IssuedAt time.Time
}
