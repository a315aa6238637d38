package domain

import "time"

// MarketState is the derived lifecycle state of a market. It is never stored;
// DeriveState recomputes it from persisted timestamps on every operation.
type MarketState string

const (
	StateOpen                MarketState = "open"
	StateLocked              MarketState = "locked"
	StateResolutionCommitted MarketState = "resolution_committed"
	StateResolutionRevealed  MarketState = "resolution_revealed"
	StateResolved            MarketState = "resolved"
	StateCancelled           MarketState = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s MarketState) Terminal() bool {
	return s == StateResolved || s == StateCancelled
}

// MetricKind identifies which protocol metric a market predicts.
type MetricKind string

const (
	MetricTVL          MetricKind = "tvl"
	MetricVolume24h    MetricKind = "volume_24h"
	MetricUsers        MetricKind = "users"
	MetricTransactions MetricKind = "transactions"
	MetricPrice        MetricKind = "price"
	MetricMarketCap    MetricKind = "market_cap"
	MetricCustom       MetricKind = "custom"
)

// Comparator decides the market outcome from the revealed metric value.
// Fixed at market creation.
type Comparator string

const (
	CompareGTE Comparator = "gte" // outcome YES when actual >= target
	CompareLTE Comparator = "lte" // outcome YES when actual <= target
)

// Outcome applies the comparator to an actual metric value.
func (c Comparator) Outcome(actual, target uint64) bool {
	if c == CompareLTE {
		return actual <= target
	}
	return actual >= target
}

// Market is a single prediction market. Pool totals are mutated only by bet
// reveals; resolution fields are written once by the resolution reveal;
// Cancelled is set only by a successful dispute or resolution timeout.
type Market struct {
	ID                 string
	ProtocolID         string
	Metric             MetricKind
	Comparator         Comparator
	TargetValue        uint64
	ResolutionDeadline time.Time
	Description        string
	Creator            string
	YesTotal           uint64 // effective amounts
	NoTotal            uint64 // effective amounts
	Cancelled          bool
	Outcome            *bool
	RevealedValue      *uint64
	ResolvedAt         *time.Time
	CreatorFeesAccrued uint64
	CreatedAt          time.Time
}

// Pools returns the winning and losing pool totals for the market's recorded
// outcome. The bool result is false when no outcome has been recorded.
func (m Market) Pools() (winning, losing uint64, ok bool) {
	if m.Outcome == nil {
		return 0, 0, false
	}
	if *m.Outcome {
		return m.YesTotal, m.NoTotal, true
	}
	return m.NoTotal, m.YesTotal, true
}

// MarketTiming bundles the protocol windows that DeriveState consults.
type MarketTiming struct {
	ResolutionCommitWindow time.Duration
	ResolutionRevealWindow time.Duration
	ResolutionTimeout      time.Duration
}

// DeriveState computes the lifecycle state of m at the supplied time. rc is
// the market's resolution commitment, or nil if none was ever made. The
// function is pure: calling it repeatedly with the same inputs always yields
// the same state, and no stored field advances as a side effect.
func DeriveState(m Market, rc *ResolutionCommitment, t MarketTiming, now time.Time) MarketState {
	if m.Cancelled {
		return StateCancelled
	}

	if rc != nil && rc.Revealed {
		if now.Before(rc.DisputeDeadline) {
			return StateResolutionRevealed
		}
		return StateResolved
	}

	if now.Before(m.ResolutionDeadline) {
		return StateOpen
	}

	// Past the deadline with no revealed resolution. After the resolution
	// timeout the market cancels so bettors can reclaim their stakes.
	if now.After(m.ResolutionDeadline.Add(t.ResolutionTimeout)) {
		return StateCancelled
	}

	if rc != nil {
		revealCloses := rc.CommittedAt.Add(t.ResolutionCommitWindow + t.ResolutionRevealWindow)
		if !now.After(revealCloses) {
			return StateResolutionCommitted
		}
		// Reveal window lapsed without a reveal: the commitment is inert and
		// a fresh commit is allowed.
	}

	return StateLocked
}
