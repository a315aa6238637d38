package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealbet/sealbet/internal/domain"
)

// StakeStore implements domain.StakeStore using PostgreSQL.
type StakeStore struct {
	pool *pgxpool.Pool
}

// NewStakeStore creates a new StakeStore backed by the given connection pool.
func NewStakeStore(pool *pgxpool.Pool) *StakeStore {
	return &StakeStore{pool: pool}
}

// GetStaker fetches a staker account.
func (s *StakeStore) GetStaker(ctx context.Context, owner string) (domain.StakerAccount, error) {
	const query = `
		SELECT staked_amount, traded_volume, last_stake_at
		FROM stakers WHERE owner = $1`

	a := domain.StakerAccount{Owner: owner}
	var staked, volume int64
	var lastStakeAt *time.Time
	err := s.pool.QueryRow(ctx, query, owner).Scan(&staked, &volume, &lastStakeAt)
	if err != nil {
		return domain.StakerAccount{}, fmt.Errorf("postgres: get staker %s: %w", owner, mapNoRows(err))
	}
	a.StakedAmount = uint64(staked)
	a.TradedVolume = uint64(volume)
	if lastStakeAt != nil {
		a.LastStakeAt = *lastStakeAt
	}
	return a, nil
}

// Stake adds to the owner's staked balance and the protocol total.
func (s *StakeStore) Stake(ctx context.Context, owner string, amount uint64, now time.Time) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stakers (owner, staked_amount, last_stake_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (owner) DO UPDATE
			SET staked_amount = stakers.staked_amount + $2, last_stake_at = $3`,
			owner, int64(amount), now,
		); err != nil {
			return fmt.Errorf("upsert staker: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET total_staked = total_staked + $1 WHERE id = 1`,
			int64(amount),
		); err != nil {
			return fmt.Errorf("bump total staked: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: stake: %w", err)
	}
	return nil
}

// Unstake withdraws from the owner's staked balance. The balance guard makes
// an overdraw fail ErrInsufficientStake.
func (s *StakeStore) Unstake(ctx context.Context, owner string, amount uint64) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stakers SET staked_amount = staked_amount - $2
			WHERE owner = $1 AND staked_amount >= $2`,
			owner, int64(amount),
		)
		if err != nil {
			return fmt.Errorf("debit staker: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInsufficientStake
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET total_staked = GREATEST(total_staked - $1, 0) WHERE id = 1`,
			int64(amount),
		); err != nil {
			return fmt.Errorf("drop total staked: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: unstake: %w", err)
	}
	return nil
}

// GetVePosition fetches the owner's vote-escrow lock.
func (s *StakeStore) GetVePosition(ctx context.Context, owner string) (domain.VePosition, error) {
	const query = `
		SELECT locked_stake, ve_amount, lock_start, lock_end
		FROM ve_positions WHERE owner = $1`

	p := domain.VePosition{Owner: owner}
	var locked, ve int64
	err := s.pool.QueryRow(ctx, query, owner).Scan(&locked, &ve, &p.LockStart, &p.LockEnd)
	if err != nil {
		return domain.VePosition{}, fmt.Errorf("postgres: get ve position %s: %w", owner, mapNoRows(err))
	}
	p.LockedStake = uint64(locked)
	p.VeAmount = uint64(ve)
	return p, nil
}

// CreateVePosition inserts a vote-escrow lock and mints its ve supply.
func (s *StakeStore) CreateVePosition(ctx context.Context, p domain.VePosition) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ve_positions (owner, locked_stake, ve_amount, lock_start, lock_end)
			VALUES ($1, $2, $3, $4, $5)`,
			p.Owner, int64(p.LockedStake), int64(p.VeAmount), p.LockStart, p.LockEnd,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("insert ve position: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET total_ve_supply = total_ve_supply + $1 WHERE id = 1`,
			int64(p.VeAmount),
		); err != nil {
			return fmt.Errorf("mint ve supply: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: create ve position: %w", err)
	}
	return nil
}

// DeleteVePosition removes the owner's lock and burns its ve supply.
func (s *StakeStore) DeleteVePosition(ctx context.Context, owner string) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var ve int64
		err := tx.QueryRow(ctx,
			`DELETE FROM ve_positions WHERE owner = $1 RETURNING ve_amount`,
			owner,
		).Scan(&ve)
		if err != nil {
			return mapNoRows(err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET total_ve_supply = GREATEST(total_ve_supply - $1, 0) WHERE id = 1`,
			ve,
		); err != nil {
			return fmt.Errorf("burn ve supply: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: delete ve position: %w", err)
	}
	return nil
}

// GetBadge fetches the owner's volume badge.
func (s *StakeStore) GetBadge(ctx context.Context, owner string) (domain.VolumeBadge, error) {
	const query = `
		SELECT tier, volume, ve_amount, issued_at
		FROM volume_badges WHERE owner = $1`

	b := domain.VolumeBadge{Owner: owner}
	var tier string
	var volume, ve int64
	err := s.pool.QueryRow(ctx, query, owner).Scan(&tier, &volume, &ve, &b.IssuedAt)
	if err != nil {
		return domain.VolumeBadge{}, fmt.Errorf("postgres: get badge %s: %w", owner, mapNoRows(err))
	}
	b.Tier = domain.BadgeTier(tier)
	b.Volume = uint64(volume)
	b.VeAmount = uint64(ve)
	return b, nil
}

// UpsertBadge replaces the owner's badge, adjusting total ve supply by the
// difference between the new and previous grant.
func (s *StakeStore) UpsertBadge(ctx context.Context, b domain.VolumeBadge) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var prev int64
		err := tx.QueryRow(ctx,
			`SELECT ve_amount FROM volume_badges WHERE owner = $1 FOR UPDATE`,
			b.Owner,
		).Scan(&prev)
		if err != nil && mapNoRows(err) != domain.ErrNotFound {
			return fmt.Errorf("read previous badge: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO volume_badges (owner, tier, volume, ve_amount, issued_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (owner) DO UPDATE
			SET tier = $2, volume = $3, ve_amount = $4, issued_at = $5`,
			b.Owner, string(b.Tier), int64(b.Volume), int64(b.VeAmount), b.IssuedAt,
		); err != nil {
			return fmt.Errorf("upsert badge: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state
			 SET total_ve_supply = GREATEST(total_ve_supply - $1, 0) + $2
			 WHERE id = 1`,
			prev, int64(b.VeAmount),
		); err != nil {
			return fmt.Errorf("adjust ve supply: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: upsert badge: %w", err)
	}
	return nil
}

// DeleteBadge removes the owner's badge and its ve grant.
func (s *StakeStore) DeleteBadge(ctx context.Context, owner string) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var ve int64
		err := tx.QueryRow(ctx,
			`DELETE FROM volume_badges WHERE owner = $1 RETURNING ve_amount`,
			owner,
		).Scan(&ve)
		if err != nil {
			return mapNoRows(err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET total_ve_supply = GREATEST(total_ve_supply - $1, 0) WHERE id = 1`,
			ve,
		); err != nil {
			return fmt.Errorf("burn ve supply: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: delete badge: %w", err)
	}
	return nil
}
