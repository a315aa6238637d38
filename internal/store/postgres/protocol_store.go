package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealbet/sealbet/internal/domain"
)

// ProtocolStore implements domain.ProtocolStore using PostgreSQL. The
// protocol state is a single guarded row.
type ProtocolStore struct {
	pool *pgxpool.Pool
}

// NewProtocolStore creates a new ProtocolStore backed by the given connection
// pool.
func NewProtocolStore(pool *pgxpool.Pool) *ProtocolStore {
	return &ProtocolStore{pool: pool}
}

// EnsureState initializes the protocol state row on first boot. An existing
// row is left untouched so a config change never silently rotates the
// authority.
func (s *ProtocolStore) EnsureState(ctx context.Context, authority, treasury string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO protocol_state (id, authority, treasury)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`,
		authority, treasury,
	)
	if err != nil {
		return fmt.Errorf("postgres: ensure protocol state: %w", err)
	}
	return nil
}

// GetState fetches the protocol state row.
func (s *ProtocolStore) GetState(ctx context.Context) (domain.ProtocolState, error) {
	const query = `
		SELECT authority, treasury, paused,
		       total_staked, total_ve_supply, reward_pool, insurance_fund,
		       treasury_owed, total_fees_collected, total_burned
		FROM protocol_state WHERE id = 1`

	var st domain.ProtocolState
	var staked, ve, pool, insurance, owed, fees, burned int64
	err := s.pool.QueryRow(ctx, query).Scan(
		&st.Authority, &st.Treasury, &st.Paused,
		&staked, &ve, &pool, &insurance, &owed, &fees, &burned,
	)
	if err != nil {
		return domain.ProtocolState{}, fmt.Errorf("postgres: get protocol state: %w", mapNoRows(err))
	}
	st.TotalStaked = uint64(staked)
	st.TotalVeSupply = uint64(ve)
	st.RewardPool = uint64(pool)
	st.InsuranceFund = uint64(insurance)
	st.TreasuryOwed = uint64(owed)
	st.TotalFeesCollected = uint64(fees)
	st.TotalBurned = uint64(burned)
	return st, nil
}

// SetPaused flips the pause flag.
func (s *ProtocolStore) SetPaused(ctx context.Context, paused bool) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE protocol_state SET paused = $1 WHERE id = 1`, paused,
	); err != nil {
		return fmt.Errorf("postgres: set paused: %w", err)
	}
	return nil
}

// SetAuthority records a new protocol authority.
func (s *ProtocolStore) SetAuthority(ctx context.Context, authority string) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE protocol_state SET authority = $1 WHERE id = 1`, authority,
	); err != nil {
		return fmt.Errorf("postgres: set authority: %w", err)
	}
	return nil
}

// PayReward debits the reward pool. The balance guard makes an overdraw fail
// ErrNoRewards.
func (s *ProtocolStore) PayReward(ctx context.Context, amount uint64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE protocol_state SET reward_pool = reward_pool - $1 WHERE id = 1 AND reward_pool >= $1`,
		int64(amount),
	)
	if err != nil {
		return fmt.Errorf("postgres: pay reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoRewards
	}
	return nil
}
