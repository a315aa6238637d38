package domain

import "time"

// Side is the outcome a bet backs.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Byte returns the wire encoding of the side used in commitment preimages.
func (s Side) Byte() byte {
	if s == SideYes {
		return 0x01
	}
	return 0x00
}

// SideFromByte decodes a wire side flag.
func SideFromByte(b byte) Side {
	if b == 0x01 {
		return SideYes
	}
	return SideNo
}

// PayoutKind tags how a bet was settled.
type PayoutKind string

const (
	PayoutWin    PayoutKind = "win"
	PayoutLoss   PayoutKind = "loss"
	PayoutRefund PayoutKind = "refund"
)

// FeeSplit is the destination breakdown of a settlement fee.
type FeeSplit struct {
	Stakers  uint64
	Creator  uint64
	Treasury uint64
	Burn     uint64
}

// Settlement is the result of claiming a single bet.
type Settlement struct {
	Kind       PayoutKind
	Payout     uint64 // amount owed to the bettor
	GrossShare uint64 // parimutuel share of the losing pool, before fee
	Fee        uint64
	Split      FeeSplit
}

// Bet is a revealed wager, created only through a successful commitment
// reveal. Claimed transitions false to true exactly once; it is the sole
// guard against double payout.
type Bet struct {
	MarketID        string
	Bettor          string
	Nonce           uint64
	Amount          uint64
	Side            Side
	EffectiveAmount uint64 // amount plus staking bonus
	PlacedAt        time.Time
	Claimed         bool
	ClaimedAt       *time.Time
	Result          PayoutKind // empty until claimed
	Payout          uint64
	Fee             uint64
}
