package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealbet/sealbet/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketColumns = `
	id, protocol_id, metric, comparator, target_value,
	resolution_deadline, description, creator,
	yes_total, no_total, cancelled, outcome, revealed_value,
	resolved_at, creator_fees_accrued, created_at`

// Create inserts a new market.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			id, protocol_id, metric, comparator, target_value,
			resolution_deadline, description, creator, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		m.ID, m.ProtocolID, string(m.Metric), string(m.Comparator), int64(m.TargetValue),
		m.ResolutionDeadline, m.Description, m.Creator, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create market %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get fetches a market by ID.
func (s *MarketStore) Get(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+marketColumns+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, mapNoRows(err))
	}
	return m, nil
}

// List returns markets newest first.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT`+marketColumns+` FROM markets ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

// ListSettledBefore returns terminal markets whose resolution deadline passed
// before cutoff.
func (s *MarketStore) ListSettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT`+marketColumns+` FROM markets
		 WHERE resolution_deadline < $1 AND (resolved_at IS NOT NULL OR cancelled)
		 ORDER BY resolution_deadline
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settled markets: %w", err)
	}
	defer rows.Close()
	return collectMarkets(rows)
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate markets: %w", err)
	}
	return markets, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m                         domain.Market
		metric, comparator        string
		target, yes, no, creatorF int64
		revealedValue             *int64
	)
	err := row.Scan(
		&m.ID, &m.ProtocolID, &metric, &comparator, &target,
		&m.ResolutionDeadline, &m.Description, &m.Creator,
		&yes, &no, &m.Cancelled, &m.Outcome, &revealedValue,
		&m.ResolvedAt, &creatorF, &m.CreatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Metric = domain.MetricKind(metric)
	m.Comparator = domain.Comparator(comparator)
	m.TargetValue = uint64(target)
	m.YesTotal = uint64(yes)
	m.NoTotal = uint64(no)
	m.CreatorFeesAccrued = uint64(creatorF)
	if revealedValue != nil {
		v := uint64(*revealedValue)
		m.RevealedValue = &v
	}
	return m, nil
}
