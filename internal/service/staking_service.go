package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/parimutuel"
)

// StakingService manages staked balances, vote-escrow locks, staking
// rewards, and volume badges.
type StakingService struct {
	stakes   domain.StakeStore
	protocol domain.ProtocolStore
	clock    domain.Clock
	logger   *slog.Logger
}

// NewStakingService creates a StakingService with all required dependencies.
func NewStakingService(
	stakes domain.StakeStore,
	protocol domain.ProtocolStore,
	clock domain.Clock,
	logger *slog.Logger,
) *StakingService {
	return &StakingService{
		stakes:   stakes,
		protocol: protocol,
		clock:    clock,
		logger:   logger,
	}
}

// Stake adds to the owner's staked balance. Staked balance raises the
// effective amount of the owner's future bets.
func (s *StakingService) Stake(ctx context.Context, owner string, amount uint64) error {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return fmt.Errorf("staking_service: stake: %w", err)
	}
	if amount == 0 {
		return fmt.Errorf("staking_service: zero stake: %w", domain.ErrInvalidAmount)
	}

	if err := s.stakes.Stake(ctx, owner, amount, s.clock.Now()); err != nil {
		return fmt.Errorf("staking_service: stake: %w", err)
	}
	s.logger.InfoContext(ctx, "staked",
		slog.String("owner", owner),
		slog.Uint64("amount", amount),
	)
	return nil
}

// Unstake withdraws from the owner's staked balance. Stake covered by an
// active vote-escrow lock cannot leave until the lock expires.
func (s *StakingService) Unstake(ctx context.Context, owner string, amount uint64) error {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return fmt.Errorf("staking_service: unstake: %w", err)
	}
	if amount == 0 {
		return fmt.Errorf("staking_service: zero unstake: %w", domain.ErrInvalidAmount)
	}

	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil {
		return fmt.Errorf("staking_service: get staker: %w", err)
	}
	now := s.clock.Now()
	if pos, posErr := s.stakes.GetVePosition(ctx, owner); posErr == nil && now.Before(pos.LockEnd) {
		available := staker.StakedAmount - min(pos.LockedStake, staker.StakedAmount)
		if amount > available {
			return fmt.Errorf("staking_service: %d exceeds unlocked %d: %w", amount, available, domain.ErrTokensLocked)
		}
	} else if posErr != nil && !isNotFound(posErr) {
		return fmt.Errorf("staking_service: get ve position: %w", posErr)
	}

	if err := s.stakes.Unstake(ctx, owner, amount); err != nil {
		return fmt.Errorf("staking_service: unstake: %w", err)
	}
	s.logger.InfoContext(ctx, "unstaked",
		slog.String("owner", owner),
		slog.Uint64("amount", amount),
	)
	return nil
}

// LockForVe locks the owner's entire staked balance for the given duration,
// minting vote-escrow power proportional to the lock length:
// staked * duration / maxDuration.
func (s *StakingService) LockForVe(ctx context.Context, owner string, duration time.Duration) (domain.VePosition, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return domain.VePosition{}, fmt.Errorf("staking_service: lock: %w", err)
	}
	if duration < domain.MinVeLockDuration || duration > domain.MaxVeLockDuration {
		return domain.VePosition{}, fmt.Errorf("staking_service: lock duration %s outside [%s, %s]: %w",
			duration, domain.MinVeLockDuration, domain.MaxVeLockDuration, domain.ErrInvalidInput)
	}

	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil {
		return domain.VePosition{}, fmt.Errorf("staking_service: get staker: %w", err)
	}
	if staker.StakedAmount == 0 {
		return domain.VePosition{}, fmt.Errorf("staking_service: nothing staked: %w", domain.ErrInsufficientStake)
	}

	now := s.clock.Now()
	pos := domain.VePosition{
		Owner:       owner,
		LockedStake: staker.StakedAmount,
		VeAmount: parimutuel.MulDiv(staker.StakedAmount,
			uint64(duration/time.Second), uint64(domain.MaxVeLockDuration/time.Second)),
		LockStart: now,
		LockEnd:   now.Add(duration),
	}
	if err := s.stakes.CreateVePosition(ctx, pos); err != nil {
		return domain.VePosition{}, fmt.Errorf("staking_service: create ve position: %w", err)
	}

	s.logger.InfoContext(ctx, "stake locked for ve",
		slog.String("owner", owner),
		slog.Uint64("locked", pos.LockedStake),
		slog.Uint64("ve_amount", pos.VeAmount),
		slog.Time("lock_end", pos.LockEnd),
	)
	return pos, nil
}

// UnlockVe releases an expired vote-escrow lock and burns its ve power.
func (s *StakingService) UnlockVe(ctx context.Context, owner string) error {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return fmt.Errorf("staking_service: unlock: %w", err)
	}

	pos, err := s.stakes.GetVePosition(ctx, owner)
	if err != nil {
		return fmt.Errorf("staking_service: get ve position: %w", err)
	}
	if s.clock.Now().Before(pos.LockEnd) {
		return fmt.Errorf("staking_service: lock runs until %s: %w", pos.LockEnd, domain.ErrLockNotExpired)
	}
	if err := s.stakes.DeleteVePosition(ctx, owner); err != nil {
		return fmt.Errorf("staking_service: delete ve position: %w", err)
	}

	s.logger.InfoContext(ctx, "ve lock released", slog.String("owner", owner))
	return nil
}

// ClaimStakingRewards pays the owner their pro-rata share of the reward
// pool: staked * rewardPool / totalStaked.
func (s *StakingService) ClaimStakingRewards(ctx context.Context, owner string) (uint64, error) {
	if err := ensureUnpaused(ctx, s.protocol); err != nil {
		return 0, fmt.Errorf("staking_service: claim rewards: %w", err)
	}

	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("staking_service: get staker: %w", err)
	}
	state, err := s.protocol.GetState(ctx)
	if err != nil {
		return 0, fmt.Errorf("staking_service: get protocol state: %w", err)
	}
	if state.RewardPool == 0 || state.TotalStaked == 0 || staker.StakedAmount == 0 {
		return 0, fmt.Errorf("staking_service: claim rewards: %w", domain.ErrNoRewards)
	}

	reward := parimutuel.MulDiv(staker.StakedAmount, state.RewardPool, state.TotalStaked)
	if reward == 0 {
		return 0, fmt.Errorf("staking_service: claim rewards: %w", domain.ErrNoRewards)
	}
	if err := s.protocol.PayReward(ctx, reward); err != nil {
		return 0, fmt.Errorf("staking_service: pay reward: %w", err)
	}

	s.logger.InfoContext(ctx, "staking rewards claimed",
		slog.String("owner", owner),
		slog.Uint64("reward", reward),
	)
	return reward, nil
}

// GetStaker returns the owner's staking account.
func (s *StakingService) GetStaker(ctx context.Context, owner string) (domain.StakerAccount, error) {
	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil {
		return domain.StakerAccount{}, fmt.Errorf("staking_service: get staker: %w", err)
	}
	return staker, nil
}

// StakerProfile bundles a staker account with its optional vote-escrow lock
// and volume badge.
type StakerProfile struct {
	Staker domain.StakerAccount
	Ve     *domain.VePosition
	Badge  *domain.VolumeBadge
}

// GetProfile returns the owner's full staking profile.
func (s *StakingService) GetProfile(ctx context.Context, owner string) (StakerProfile, error) {
	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil {
		return StakerProfile{}, fmt.Errorf("staking_service: get profile: %w", err)
	}
	profile := StakerProfile{Staker: staker}

	ve, err := s.stakes.GetVePosition(ctx, owner)
	if err == nil {
		profile.Ve = &ve
	} else if !isNotFound(err) {
		return StakerProfile{}, fmt.Errorf("staking_service: get ve position: %w", err)
	}

	badge, err := s.stakes.GetBadge(ctx, owner)
	if err == nil {
		profile.Badge = &badge
	} else if !isNotFound(err) {
		return StakerProfile{}, fmt.Errorf("staking_service: get badge: %w", err)
	}
	return profile, nil
}

// IssueBadge grants a volume badge to an owner whose tracked traded volume
// meets the tier threshold. Authority only. Issuing over an existing badge
// replaces its ve grant.
func (s *StakingService) IssueBadge(ctx context.Context, caller, owner string, tier domain.BadgeTier) (domain.VolumeBadge, error) {
	if err := ensureAuthority(ctx, s.protocol, caller); err != nil {
		return domain.VolumeBadge{}, fmt.Errorf("staking_service: issue badge: %w", err)
	}

	required, veGrant, ok := domain.BadgeRequirement(tier)
	if !ok {
		return domain.VolumeBadge{}, fmt.Errorf("staking_service: unknown tier %q: %w", tier, domain.ErrInvalidInput)
	}
	staker, err := s.stakes.GetStaker(ctx, owner)
	if err != nil && !isNotFound(err) {
		return domain.VolumeBadge{}, fmt.Errorf("staking_service: get staker: %w", err)
	}
	if staker.TradedVolume < required {
		return domain.VolumeBadge{}, fmt.Errorf("staking_service: volume %d below %d for %s: %w",
			staker.TradedVolume, required, tier, domain.ErrInsufficientVolume)
	}

	badge := domain.VolumeBadge{
		Owner:    owner,
		Tier:     tier,
		Volume:   staker.TradedVolume,
		VeAmount: veGrant,
		IssuedAt: s.clock.Now(),
	}
	if err := s.stakes.UpsertBadge(ctx, badge); err != nil {
		return domain.VolumeBadge{}, fmt.Errorf("staking_service: upsert badge: %w", err)
	}

	s.logger.InfoContext(ctx, "badge issued",
		slog.String("owner", owner),
		slog.String("tier", string(tier)),
		slog.Uint64("ve_grant", veGrant),
	)
	return badge, nil
}

// RevokeBadge removes an owner's badge and its ve grant. Authority only.
func (s *StakingService) RevokeBadge(ctx context.Context, caller, owner string) error {
	if err := ensureAuthority(ctx, s.protocol, caller); err != nil {
		return fmt.Errorf("staking_service: revoke badge: %w", err)
	}
	if err := s.stakes.DeleteBadge(ctx, owner); err != nil {
		return fmt.Errorf("staking_service: delete badge: %w", err)
	}
	s.logger.InfoContext(ctx, "badge revoked", slog.String("owner", owner))
	return nil
}
