package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists markets.
type MarketStore interface {
	Create(ctx context.Context, m Market) error
	Get(ctx context.Context, id string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	// ListSettledBefore returns markets whose resolution deadline passed
	// before cutoff and that carry either a recorded resolution or the
	// cancelled flag. Used by the settlement archiver.
	ListSettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]Market, error)
}

// BetStore persists bet commitments and revealed bets.
//
// RevealBet and SettleBet are atomic compound operations: either every write
// they imply lands, or none does, and a race on the same subject resolves to
// exactly one winner.
type BetStore interface {
	// CreateCommitment records a fresh commitment. The (market, bettor,
	// nonce) key is permanent: a second commit under the same key fails
	// ErrDuplicateCommitment even after the first has been revealed or has
	// expired, which is what prevents nonce replay.
	CreateCommitment(ctx context.Context, c BetCommitment) error
	GetCommitment(ctx context.Context, marketID, bettor string, nonce uint64) (BetCommitment, error)

	// RevealBet consumes the matching commitment (ErrAlreadyRevealed if
	// already consumed), inserts the bet, and adds its effective amount to
	// the market's side pool.
	RevealBet(ctx context.Context, b Bet) error
	GetBet(ctx context.Context, marketID, bettor string, nonce uint64) (Bet, error)
	ListBetsByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Bet, error)

	// SettleBet marks the bet claimed (ErrAlreadyClaimed if the flag is
	// already set), records the settlement on the bet row, applies the fee
	// split to the protocol totals and the market's creator accrual, and adds
	// the bet's face amount to the bettor's traded volume.
	SettleBet(ctx context.Context, marketID, bettor string, nonce uint64, s Settlement, now time.Time) error
}

// OracleStore persists oracle bonds and resolution commitments.
type OracleStore interface {
	// DepositBond creates or tops up a bond. Slashed oracles cannot deposit.
	DepositBond(ctx context.Context, oracle string, amount uint64, now time.Time) error
	GetBond(ctx context.Context, oracle string) (OracleBond, error)

	// WithdrawBond releases the full bond and returns the released amount.
	// It fails ErrOracleSlashed for slashed oracles and ErrDisputeWindowOpen
	// while any resolution commitment by this oracle is still consequential
	// at now: unrevealed and committed after liveAfter, or revealed with its
	// dispute window open on a market that has not been cancelled.
	WithdrawBond(ctx context.Context, oracle string, liveAfter, now time.Time) (uint64, error)

	// CreateResolutionCommitment stores the market's resolution commitment.
	// It fails ErrAlreadyRevealed when a revealed commitment exists and
	// ErrDuplicateCommitment when an unrevealed one committed after liveAfter
	// (i.e. still live) exists; a dead unrevealed commitment is superseded.
	CreateResolutionCommitment(ctx context.Context, rc ResolutionCommitment, liveAfter time.Time) error
	GetResolutionCommitment(ctx context.Context, marketID string) (ResolutionCommitment, error)

	// RevealResolution consumes the commitment (ErrAlreadyRevealed on a
	// race), records value and dispute deadline on it, and writes the
	// outcome, revealed value, and resolution time onto the market.
	RevealResolution(ctx context.Context, marketID string, value uint64, outcome bool, now, disputeDeadline time.Time) error

	// DisputeAndSlash cancels the market and slashes slashAmount from the
	// oracle's bond into the insurance fund, atomically. A second dispute of
	// the same market fails ErrMarketResolved via the cancelled flag.
	DisputeAndSlash(ctx context.Context, marketID, oracle string, slashAmount uint64) error
}

// StakeStore persists staker accounts, vote-escrow positions, and badges.
type StakeStore interface {
	GetStaker(ctx context.Context, owner string) (StakerAccount, error)
	Stake(ctx context.Context, owner string, amount uint64, now time.Time) error
	Unstake(ctx context.Context, owner string, amount uint64) error

	GetVePosition(ctx context.Context, owner string) (VePosition, error)
	CreateVePosition(ctx context.Context, p VePosition) error
	DeleteVePosition(ctx context.Context, owner string) error

	GetBadge(ctx context.Context, owner string) (VolumeBadge, error)
	// UpsertBadge replaces the owner's badge, adjusting total vote-escrow
	// supply by the difference between the new and previous grant.
	UpsertBadge(ctx context.Context, b VolumeBadge) error
	DeleteBadge(ctx context.Context, owner string) error
}

// ProtocolStore persists the singleton protocol state.
type ProtocolStore interface {
	GetState(ctx context.Context) (ProtocolState, error)
	SetPaused(ctx context.Context, paused bool) error
	SetAuthority(ctx context.Context, authority string) error
	// PayReward debits the reward pool by amount, failing ErrNoRewards when
	// the pool does not cover it.
	PayReward(ctx context.Context, amount uint64) error
}
