package domain

import "time"

// Commitment is the shared hash-commitment record: a digest, its creation
// time, and whether it has been consumed by a reveal. Commitments are never
// deleted; the Revealed flag is the replay guard.
type Commitment struct {
	Digest      [32]byte
	CommittedAt time.Time
	Revealed    bool
}

// Live reports whether the commitment can still be revealed at now, given the
// commit and reveal windows. An expired live commitment is inert: it blocks
// nothing and may be superseded by a fresh commit under a new nonce.
func (c Commitment) Live(commitWindow, revealWindow time.Duration, now time.Time) bool {
	return !c.Revealed && !now.After(c.CommittedAt.Add(commitWindow+revealWindow))
}

// BetCommitment is a bettor's sealed intent on a market. A bettor may hold
// several by varying the nonce.
type BetCommitment struct {
	Commitment
	MarketID string
	Bettor   string
	Nonce    uint64
}

// ResolutionCommitment is the oracle's sealed resolution for a market. At most
// one live commitment exists per market; reveal populates Value and opens the
// dispute window.
type ResolutionCommitment struct {
	Commitment
	MarketID        string
	Oracle          string
	Value           uint64
	DisputeDeadline time.Time
}
