package domain

import "errors"

// Timing violations: recoverable by waiting, or permanent misses (a late
// reveal simply forfeits the commitment).
var (
	ErrRevealTooEarly    = errors.New("reveal too early")
	ErrRevealTooLate     = errors.New("reveal too late")
	ErrDisputeWindowOpen = errors.New("dispute window open")
)

// Integrity violations: caller error or replay attempt, never retried.
var (
	ErrInvalidCommitment   = errors.New("invalid commitment")
	ErrAlreadyRevealed     = errors.New("already revealed")
	ErrAlreadyClaimed      = errors.New("already claimed")
	ErrDuplicateCommitment = errors.New("duplicate commitment")
)

// Economic precondition violations: caller must remediate before retrying.
var (
	ErrInsufficientOracleBond = errors.New("insufficient oracle bond")
	ErrOracleSlashed          = errors.New("oracle slashed")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrBetTooSmall            = errors.New("bet amount below minimum")
	ErrBetTooLarge            = errors.New("bet amount exceeds maximum")
	ErrInsufficientStake      = errors.New("insufficient stake")
	ErrTokensLocked           = errors.New("tokens locked for vote escrow")
	ErrNoRewards              = errors.New("no rewards to claim")
	ErrInsufficientVolume     = errors.New("insufficient traded volume for badge tier")
	ErrAmountOverflow         = errors.New("amount overflows running total")
)

// Lifecycle violations: caller must wait for state to advance.
var (
	ErrMarketNotOpen      = errors.New("market not open for betting")
	ErrMarketNotResolved  = errors.New("market not resolved")
	ErrMarketResolved     = errors.New("market already resolved")
	ErrResolutionTooEarly = errors.New("resolution before market deadline")
	ErrUseCommitReveal    = errors.New("direct path disabled, use commit-reveal")
	ErrLockNotExpired     = errors.New("vote escrow lock not expired")
	ErrInvalidDeadline    = errors.New("resolution deadline too close")
)

// Access and liveness.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrProtocolPaused = errors.New("protocol paused")
	ErrLockHeld       = errors.New("lock already held")
	ErrInvalidInput   = errors.New("invalid input")
)
