package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealbet/sealbet/internal/domain"
)

// OracleStore implements domain.OracleStore using PostgreSQL.
type OracleStore struct {
	pool *pgxpool.Pool
}

// NewOracleStore creates a new OracleStore backed by the given connection pool.
func NewOracleStore(pool *pgxpool.Pool) *OracleStore {
	return &OracleStore{pool: pool}
}

// DepositBond creates or tops up a bond. Slashed oracles are rejected.
func (s *OracleStore) DepositBond(ctx context.Context, oracle string, amount uint64, now time.Time) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO oracle_bonds (oracle, locked_amount, deposited_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (oracle) DO UPDATE
			SET locked_amount = oracle_bonds.locked_amount + $2, updated_at = $3
			WHERE oracle_bonds.slashed = FALSE`,
			oracle, int64(amount), now,
		)
		if err != nil {
			return fmt.Errorf("upsert bond: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOracleSlashed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: deposit bond: %w", err)
	}
	return nil
}

// GetBond fetches an oracle's bond record.
func (s *OracleStore) GetBond(ctx context.Context, oracle string) (domain.OracleBond, error) {
	const query = `
		SELECT locked_amount, slashed, slashed_amount, deposited_at, updated_at
		FROM oracle_bonds WHERE oracle = $1`

	b := domain.OracleBond{Oracle: oracle}
	var locked, slashedAmount int64
	err := s.pool.QueryRow(ctx, query, oracle).
		Scan(&locked, &b.Slashed, &slashedAmount, &b.DepositedAt, &b.UpdatedAt)
	if err != nil {
		return domain.OracleBond{}, fmt.Errorf("postgres: get bond %s: %w", oracle, mapNoRows(err))
	}
	b.LockedAmount = uint64(locked)
	b.SlashedAmount = uint64(slashedAmount)
	return b, nil
}

// WithdrawBond releases the full bond unless the oracle still has a
// consequential resolution commitment: unrevealed and committed after
// liveAfter, or revealed with its dispute window open on a market that was
// not cancelled.
func (s *OracleStore) WithdrawBond(ctx context.Context, oracle string, liveAfter, now time.Time) (uint64, error) {
	var released uint64
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var locked int64
		var slashed bool
		err := tx.QueryRow(ctx,
			`SELECT locked_amount, slashed FROM oracle_bonds WHERE oracle = $1 FOR UPDATE`,
			oracle,
		).Scan(&locked, &slashed)
		if err != nil {
			return mapNoRows(err)
		}
		if slashed {
			return domain.ErrOracleSlashed
		}

		var blocked bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1
				FROM resolution_commitments rc
				JOIN markets m ON m.id = rc.market_id
				WHERE rc.oracle = $1
				  AND (
					(NOT rc.revealed AND rc.committed_at > $2)
					OR (rc.revealed AND NOT m.cancelled AND rc.dispute_deadline > $3)
				  )
			)`,
			oracle, liveAfter, now,
		).Scan(&blocked)
		if err != nil {
			return fmt.Errorf("check obligations: %w", err)
		}
		if blocked {
			return domain.ErrDisputeWindowOpen
		}

		if _, err := tx.Exec(ctx,
			`UPDATE oracle_bonds SET locked_amount = 0, updated_at = $2 WHERE oracle = $1`,
			oracle, now,
		); err != nil {
			return fmt.Errorf("release bond: %w", err)
		}
		released = uint64(locked)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("postgres: withdraw bond: %w", err)
	}
	return released, nil
}

// CreateResolutionCommitment stores the market's resolution commitment,
// superseding a dead unrevealed predecessor.
func (s *OracleStore) CreateResolutionCommitment(ctx context.Context, rc domain.ResolutionCommitment, liveAfter time.Time) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var revealed bool
		var committedAt time.Time
		err := tx.QueryRow(ctx,
			`SELECT revealed, committed_at FROM resolution_commitments WHERE market_id = $1 FOR UPDATE`,
			rc.MarketID,
		).Scan(&revealed, &committedAt)
		switch {
		case err == nil:
			if revealed {
				return domain.ErrAlreadyRevealed
			}
			if committedAt.After(liveAfter) {
				return domain.ErrDuplicateCommitment
			}
		case mapNoRows(err) == domain.ErrNotFound:
			// No predecessor.
		default:
			return fmt.Errorf("check existing: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO resolution_commitments (market_id, oracle, digest, committed_at, revealed)
			VALUES ($1, $2, $3, $4, FALSE)
			ON CONFLICT (market_id) DO UPDATE
			SET oracle = $2, digest = $3, committed_at = $4, revealed = FALSE,
			    value = 0, dispute_deadline = NULL`,
			rc.MarketID, rc.Oracle, rc.Digest[:], rc.CommittedAt,
		); err != nil {
			return fmt.Errorf("upsert commitment: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: create resolution commitment: %w", err)
	}
	return nil
}

// GetResolutionCommitment fetches the market's resolution commitment.
func (s *OracleStore) GetResolutionCommitment(ctx context.Context, marketID string) (domain.ResolutionCommitment, error) {
	const query = `
		SELECT oracle, digest, committed_at, revealed, value, dispute_deadline
		FROM resolution_commitments WHERE market_id = $1`

	rc := domain.ResolutionCommitment{MarketID: marketID}
	var digest []byte
	var value int64
	var disputeDeadline *time.Time
	err := s.pool.QueryRow(ctx, query, marketID).
		Scan(&rc.Oracle, &digest, &rc.CommittedAt, &rc.Revealed, &value, &disputeDeadline)
	if err != nil {
		return domain.ResolutionCommitment{}, fmt.Errorf("postgres: get resolution commitment %s: %w", marketID, mapNoRows(err))
	}
	copy(rc.Digest[:], digest)
	rc.Value = uint64(value)
	if disputeDeadline != nil {
		rc.DisputeDeadline = *disputeDeadline
	}
	return rc, nil
}

// RevealResolution consumes the commitment and writes the outcome onto the
// market in one transaction.
func (s *OracleStore) RevealResolution(ctx context.Context, marketID string, value uint64, outcome bool, now, disputeDeadline time.Time) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE resolution_commitments
			SET revealed = TRUE, value = $2, dispute_deadline = $3
			WHERE market_id = $1 AND revealed = FALSE`,
			marketID, int64(value), disputeDeadline,
		)
		if err != nil {
			return fmt.Errorf("consume commitment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var revealed bool
			err := tx.QueryRow(ctx,
				`SELECT revealed FROM resolution_commitments WHERE market_id = $1`,
				marketID,
			).Scan(&revealed)
			if err != nil {
				return mapNoRows(err)
			}
			return domain.ErrAlreadyRevealed
		}

		if _, err := tx.Exec(ctx, `
			UPDATE markets
			SET outcome = $2, revealed_value = $3, resolved_at = $4
			WHERE id = $1`,
			marketID, outcome, int64(value), now,
		); err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: reveal resolution: %w", err)
	}
	return nil
}

// DisputeAndSlash cancels the market and slashes the oracle's bond into the
// insurance fund in one transaction. The cancelled-flag guard makes a second
// dispute fail ErrMarketResolved.
func (s *OracleStore) DisputeAndSlash(ctx context.Context, marketID, oracle string, slashAmount uint64) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE markets SET cancelled = TRUE WHERE id = $1 AND cancelled = FALSE`,
			marketID,
		)
		if err != nil {
			return fmt.Errorf("cancel market: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM markets WHERE id = $1)`, marketID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check market: %w", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrMarketResolved
		}

		tag, err = tx.Exec(ctx, `
			UPDATE oracle_bonds
			SET slashed = TRUE, slashed_amount = $2,
			    locked_amount = GREATEST(locked_amount - $2, 0),
			    updated_at = NOW()
			WHERE oracle = $1 AND slashed = FALSE`,
			oracle, int64(slashAmount),
		)
		if err != nil {
			return fmt.Errorf("slash bond: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOracleSlashed
		}

		if _, err := tx.Exec(ctx,
			`UPDATE protocol_state SET insurance_fund = insurance_fund + $1 WHERE id = 1`,
			int64(slashAmount),
		); err != nil {
			return fmt.Errorf("fund insurance: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: dispute and slash: %w", err)
	}
	return nil
}
