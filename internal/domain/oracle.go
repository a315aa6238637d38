package domain

import "time"

// OracleBond is the collateral an oracle locks before it may commit market
// resolutions. Slashed is set exactly once, by a successful dispute.
type OracleBond struct {
	Oracle        string
	LockedAmount  uint64
	Slashed       bool
	SlashedAmount uint64
	DepositedAt   time.Time
	UpdatedAt     time.Time
}
