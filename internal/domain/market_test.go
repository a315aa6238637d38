package domain

import (
	"testing"
	"time"
)

var (
	deadline   = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	testTiming = MarketTiming{
		ResolutionCommitWindow: 5 * time.Minute,
		ResolutionRevealWindow: time.Hour,
		ResolutionTimeout:      7 * 24 * time.Hour,
	}
)

func TestDeriveState(t *testing.T) {
	base := Market{ResolutionDeadline: deadline}

	liveRC := &ResolutionCommitment{
		Commitment: Commitment{CommittedAt: deadline.Add(time.Minute)},
	}
	lapsedRC := &ResolutionCommitment{
		Commitment: Commitment{CommittedAt: deadline.Add(-2 * time.Hour)},
	}
	revealedRC := &ResolutionCommitment{
		Commitment:      Commitment{CommittedAt: deadline.Add(time.Minute), Revealed: true},
		DisputeDeadline: deadline.Add(2 * time.Hour),
	}

	cases := []struct {
		name string
		m    Market
		rc   *ResolutionCommitment
		now  time.Time
		want MarketState
	}{
		{"before deadline", base, nil, deadline.Add(-time.Hour), StateOpen},
		{"just before deadline", base, nil, deadline.Add(-time.Nanosecond), StateOpen},
		{"at deadline, no commitment", base, nil, deadline, StateLocked},
		{"past deadline, live commitment", base, liveRC, deadline.Add(30 * time.Minute), StateResolutionCommitted},
		{"past deadline, lapsed commitment", base, lapsedRC, deadline.Add(time.Hour), StateLocked},
		{"revealed, dispute window open", base, revealedRC, deadline.Add(time.Hour), StateResolutionRevealed},
		{"revealed, dispute window closed", base, revealedRC, deadline.Add(2 * time.Hour), StateResolved},
		{"resolution timeout elapsed", base, nil, deadline.Add(testTiming.ResolutionTimeout + time.Second), StateCancelled},
		{"at timeout boundary still locked", base, nil, deadline.Add(testTiming.ResolutionTimeout), StateLocked},
		{
			"cancelled flag dominates",
			Market{ResolutionDeadline: deadline, Cancelled: true},
			revealedRC,
			deadline.Add(time.Hour),
			StateCancelled,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveState(tc.m, tc.rc, testTiming, tc.now); got != tc.want {
				t.Fatalf("state=%q want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveState_Pure(t *testing.T) {
	m := Market{ResolutionDeadline: deadline}
	now := deadline.Add(time.Minute)
	first := DeriveState(m, nil, testTiming, now)
	for i := 0; i < 3; i++ {
		if got := DeriveState(m, nil, testTiming, now); got != first {
			t.Fatalf("state flapped: %q then %q", first, got)
		}
	}
}

func TestMarketStateTerminal(t *testing.T) {
	for state, want := range map[MarketState]bool{
		StateOpen:                false,
		StateLocked:              false,
		StateResolutionCommitted: false,
		StateResolutionRevealed:  false,
		StateResolved:            true,
		StateCancelled:           true,
	} {
		if state.Terminal() != want {
			t.Errorf("%q.Terminal()=%v want %v", state, !want, want)
		}
	}
}

func TestComparatorOutcome(t *testing.T) {
	if !CompareGTE.Outcome(10, 10) || !CompareGTE.Outcome(11, 10) || CompareGTE.Outcome(9, 10) {
		t.Fatalf("gte comparator wrong")
	}
	if !CompareLTE.Outcome(10, 10) || !CompareLTE.Outcome(9, 10) || CompareLTE.Outcome(11, 10) {
		t.Fatalf("lte comparator wrong")
	}
}

func TestMarketPools(t *testing.T) {
	m := Market{YesTotal: 1000, NoTotal: 4000}
	if _, _, ok := m.Pools(); ok {
		t.Fatalf("pools without outcome should report ok=false")
	}

	yes := true
	m.Outcome = &yes
	winning, losing, ok := m.Pools()
	if !ok || winning != 1000 || losing != 4000 {
		t.Fatalf("pools=%d/%d ok=%v", winning, losing, ok)
	}

	no := false
	m.Outcome = &no
	winning, losing, _ = m.Pools()
	if winning != 4000 || losing != 1000 {
		t.Fatalf("pools=%d/%d for NO outcome", winning, losing)
	}
}
