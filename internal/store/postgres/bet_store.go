package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealbet/sealbet/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL. The reveal and settle
// operations run inside transactions with guarded updates so a racing
// duplicate loses with ErrAlreadyRevealed / ErrAlreadyClaimed.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a new BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

// CreateCommitment records a fresh bet commitment. The primary key on
// (market_id, bettor, nonce) is the permanent replay guard.
func (s *BetStore) CreateCommitment(ctx context.Context, c domain.BetCommitment) error {
	const query = `
		INSERT INTO bet_commitments (market_id, bettor, nonce, digest, committed_at, revealed)
		VALUES ($1, $2, $3, $4, $5, FALSE)`

	_, err := s.pool.Exec(ctx, query,
		c.MarketID, c.Bettor, int64(c.Nonce), c.Digest[:], c.CommittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCommitment
		}
		return fmt.Errorf("postgres: create bet commitment: %w", err)
	}
	return nil
}

// GetCommitment fetches a bet commitment.
func (s *BetStore) GetCommitment(ctx context.Context, marketID, bettor string, nonce uint64) (domain.BetCommitment, error) {
	const query = `
		SELECT digest, committed_at, revealed
		FROM bet_commitments
		WHERE market_id = $1 AND bettor = $2 AND nonce = $3`

	c := domain.BetCommitment{MarketID: marketID, Bettor: bettor, Nonce: nonce}
	var digest []byte
	err := s.pool.QueryRow(ctx, query, marketID, bettor, int64(nonce)).
		Scan(&digest, &c.CommittedAt, &c.Revealed)
	if err != nil {
		return domain.BetCommitment{}, fmt.Errorf("postgres: get bet commitment: %w", mapNoRows(err))
	}
	copy(c.Digest[:], digest)
	return c, nil
}

// RevealBet consumes the commitment, inserts the bet, and bumps the market's
// side pool in one transaction.
func (s *BetStore) RevealBet(ctx context.Context, b domain.Bet) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bet_commitments SET revealed = TRUE
			WHERE market_id = $1 AND bettor = $2 AND nonce = $3 AND revealed = FALSE`,
			b.MarketID, b.Bettor, int64(b.Nonce),
		)
		if err != nil {
			return fmt.Errorf("consume commitment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return commitmentConsumeError(ctx, tx, b.MarketID, b.Bettor, b.Nonce)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO bets (market_id, bettor, nonce, amount, side, effective_amount, placed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.MarketID, b.Bettor, int64(b.Nonce),
			int64(b.Amount), string(b.Side), int64(b.EffectiveAmount), b.PlacedAt,
		); err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}

		pool := "no_total"
		if b.Side == domain.SideYes {
			pool = "yes_total"
		}
		if _, err := tx.Exec(ctx,
			`UPDATE markets SET `+pool+` = `+pool+` + $2 WHERE id = $1`,
			b.MarketID, int64(b.EffectiveAmount),
		); err != nil {
			return fmt.Errorf("bump pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: reveal bet: %w", err)
	}
	return nil
}

// commitmentConsumeError distinguishes a missing commitment from one that has
// already been revealed.
func commitmentConsumeError(ctx context.Context, tx pgx.Tx, marketID, bettor string, nonce uint64) error {
	var revealed bool
	err := tx.QueryRow(ctx, `
		SELECT revealed FROM bet_commitments
		WHERE market_id = $1 AND bettor = $2 AND nonce = $3`,
		marketID, bettor, int64(nonce),
	).Scan(&revealed)
	if err != nil {
		return mapNoRows(err)
	}
	return domain.ErrAlreadyRevealed
}

// GetBet fetches a revealed bet.
func (s *BetStore) GetBet(ctx context.Context, marketID, bettor string, nonce uint64) (domain.Bet, error) {
	const query = `
		SELECT amount, side, effective_amount, placed_at, claimed, claimed_at, result, payout, fee
		FROM bets
		WHERE market_id = $1 AND bettor = $2 AND nonce = $3`

	b := domain.Bet{MarketID: marketID, Bettor: bettor, Nonce: nonce}
	var amount, effective, payout, fee int64
	var side, result string
	err := s.pool.QueryRow(ctx, query, marketID, bettor, int64(nonce)).Scan(
		&amount, &side, &effective, &b.PlacedAt, &b.Claimed, &b.ClaimedAt, &result, &payout, &fee,
	)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("postgres: get bet: %w", mapNoRows(err))
	}
	b.Amount = uint64(amount)
	b.Side = domain.Side(side)
	b.EffectiveAmount = uint64(effective)
	b.Result = domain.PayoutKind(result)
	b.Payout = uint64(payout)
	b.Fee = uint64(fee)
	return b, nil
}

// ListBetsByMarket returns a market's revealed bets.
func (s *BetStore) ListBetsByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, `
		SELECT bettor, nonce, amount, side, effective_amount, placed_at, claimed, claimed_at, result, payout, fee
		FROM bets
		WHERE market_id = $1
		ORDER BY bettor, nonce
		LIMIT $2 OFFSET $3`,
		marketID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		b := domain.Bet{MarketID: marketID}
		var nonce, amount, effective, payout, fee int64
		var side, result string
		if err := rows.Scan(
			&b.Bettor, &nonce, &amount, &side, &effective,
			&b.PlacedAt, &b.Claimed, &b.ClaimedAt, &result, &payout, &fee,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		b.Nonce = uint64(nonce)
		b.Amount = uint64(amount)
		b.Side = domain.Side(side)
		b.EffectiveAmount = uint64(effective)
		b.Result = domain.PayoutKind(result)
		b.Payout = uint64(payout)
		b.Fee = uint64(fee)
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate bets: %w", err)
	}
	return bets, nil
}

// SettleBet marks the bet claimed and applies the settlement's fee split to
// the protocol totals, the market's creator accrual, and the bettor's traded
// volume in one transaction. The claimed-flag guard makes a second settle of
// the same bet fail ErrAlreadyClaimed.
func (s *BetStore) SettleBet(ctx context.Context, marketID, bettor string, nonce uint64, st domain.Settlement, now time.Time) error {
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bets
			SET claimed = TRUE, claimed_at = $4, result = $5, payout = $6, fee = $7
			WHERE market_id = $1 AND bettor = $2 AND nonce = $3 AND claimed = FALSE`,
			marketID, bettor, int64(nonce),
			now, string(st.Kind), int64(st.Payout), int64(st.Fee),
		)
		if err != nil {
			return fmt.Errorf("mark claimed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var claimed bool
			err := tx.QueryRow(ctx,
				`SELECT claimed FROM bets WHERE market_id = $1 AND bettor = $2 AND nonce = $3`,
				marketID, bettor, int64(nonce),
			).Scan(&claimed)
			if err != nil {
				return mapNoRows(err)
			}
			return domain.ErrAlreadyClaimed
		}

		if _, err := tx.Exec(ctx,
			`UPDATE markets SET creator_fees_accrued = creator_fees_accrued + $2 WHERE id = $1`,
			marketID, int64(st.Split.Creator),
		); err != nil {
			return fmt.Errorf("accrue creator fees: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE protocol_state
			SET reward_pool          = reward_pool + $1,
			    treasury_owed        = treasury_owed + $2,
			    total_burned         = total_burned + $3,
			    total_fees_collected = total_fees_collected + $4
			WHERE id = 1`,
			int64(st.Split.Stakers), int64(st.Split.Treasury), int64(st.Split.Burn), int64(st.Fee),
		); err != nil {
			return fmt.Errorf("apply fee split: %w", err)
		}

		var amount int64
		if err := tx.QueryRow(ctx,
			`SELECT amount FROM bets WHERE market_id = $1 AND bettor = $2 AND nonce = $3`,
			marketID, bettor, int64(nonce),
		).Scan(&amount); err != nil {
			return fmt.Errorf("read bet amount: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stakers (owner, traded_volume) VALUES ($1, $2)
			ON CONFLICT (owner) DO UPDATE SET traded_volume = stakers.traded_volume + $2`,
			bettor, amount,
		); err != nil {
			return fmt.Errorf("track traded volume: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: settle bet: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
