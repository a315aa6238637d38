// Package memory implements every domain store interface with in-memory maps
// behind a single mutex. Used for testing and development; the mutex gives
// the same atomicity guarantees the PostgreSQL implementation gets from SQL
// transactions.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
)

type betKey struct {
	marketID string
	bettor   string
	nonce    uint64
}

// Store holds all protocol state in memory.
type Store struct {
	mu             sync.RWMutex
	markets        map[string]*domain.Market
	betCommitments map[betKey]*domain.BetCommitment
	bets           map[betKey]*domain.Bet
	resolutions    map[string]*domain.ResolutionCommitment
	bonds          map[string]*domain.OracleBond
	stakers        map[string]*domain.StakerAccount
	vePositions    map[string]*domain.VePosition
	badges         map[string]*domain.VolumeBadge
	state          domain.ProtocolState
}

// New creates an empty Store with the given protocol authority and treasury.
func New(authority, treasury string) *Store {
	return &Store{
		markets:        make(map[string]*domain.Market),
		betCommitments: make(map[betKey]*domain.BetCommitment),
		bets:           make(map[betKey]*domain.Bet),
		resolutions:    make(map[string]*domain.ResolutionCommitment),
		bonds:          make(map[string]*domain.OracleBond),
		stakers:        make(map[string]*domain.StakerAccount),
		vePositions:    make(map[string]*domain.VePosition),
		badges:         make(map[string]*domain.VolumeBadge),
		state: domain.ProtocolState{
			Authority: authority,
			Treasury:  treasury,
		},
	}
}

// --- MarketStore ---

func (s *Store) Create(_ context.Context, m domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := m
	s.markets[m.ID] = &cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return *m, nil
}

func (s *Store) List(_ context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]domain.Market, 0, len(s.markets))
	for _, m := range s.markets {
		markets = append(markets, *m)
	}
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].CreatedAt.After(markets[j].CreatedAt)
	})
	return paginate(markets, opts), nil
}

func (s *Store) ListSettledBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Market
	for _, m := range s.markets {
		if !m.ResolutionDeadline.Before(cutoff) {
			continue
		}
		if m.ResolvedAt == nil && !m.Cancelled {
			continue
		}
		out = append(out, *m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// --- BetStore ---

func (s *Store) CreateCommitment(_ context.Context, c domain.BetCommitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := betKey{c.MarketID, c.Bettor, c.Nonce}
	if _, ok := s.betCommitments[key]; ok {
		return domain.ErrDuplicateCommitment
	}
	cp := c
	s.betCommitments[key] = &cp
	return nil
}

func (s *Store) GetCommitment(_ context.Context, marketID, bettor string, nonce uint64) (domain.BetCommitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.betCommitments[betKey{marketID, bettor, nonce}]
	if !ok {
		return domain.BetCommitment{}, domain.ErrNotFound
	}
	return *c, nil
}

func (s *Store) RevealBet(_ context.Context, b domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := betKey{b.MarketID, b.Bettor, b.Nonce}
	c, ok := s.betCommitments[key]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Revealed {
		return domain.ErrAlreadyRevealed
	}
	m, ok := s.markets[b.MarketID]
	if !ok {
		return domain.ErrNotFound
	}

	total := &m.YesTotal
	if b.Side == domain.SideNo {
		total = &m.NoTotal
	}
	if b.EffectiveAmount > math.MaxUint64-*total {
		return domain.ErrAmountOverflow
	}

	c.Revealed = true
	cp := b
	s.bets[key] = &cp
	*total += b.EffectiveAmount
	return nil
}

func (s *Store) GetBet(_ context.Context, marketID, bettor string, nonce uint64) (domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bets[betKey{marketID, bettor, nonce}]
	if !ok {
		return domain.Bet{}, domain.ErrNotFound
	}
	return *b, nil
}

func (s *Store) ListBetsByMarket(_ context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bets []domain.Bet
	for _, b := range s.bets {
		if b.MarketID == marketID {
			bets = append(bets, *b)
		}
	}
	sort.Slice(bets, func(i, j int) bool {
		if bets[i].Bettor != bets[j].Bettor {
			return bets[i].Bettor < bets[j].Bettor
		}
		return bets[i].Nonce < bets[j].Nonce
	})
	return paginate(bets, opts), nil
}

func (s *Store) SettleBet(_ context.Context, marketID, bettor string, nonce uint64, st domain.Settlement, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bets[betKey{marketID, bettor, nonce}]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Claimed {
		return domain.ErrAlreadyClaimed
	}
	m, ok := s.markets[marketID]
	if !ok {
		return domain.ErrNotFound
	}

	b.Claimed = true
	claimedAt := now
	b.ClaimedAt = &claimedAt
	b.Result = st.Kind
	b.Payout = st.Payout
	b.Fee = st.Fee

	m.CreatorFeesAccrued += st.Split.Creator
	s.state.RewardPool += st.Split.Stakers
	s.state.TreasuryOwed += st.Split.Treasury
	s.state.TotalBurned += st.Split.Burn
	s.state.TotalFeesCollected += st.Fee

	staker := s.stakerLocked(bettor)
	staker.TradedVolume += b.Amount
	return nil
}

// --- OracleStore ---

func (s *Store) DepositBond(_ context.Context, oracle string, amount uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bond, ok := s.bonds[oracle]
	if !ok {
		s.bonds[oracle] = &domain.OracleBond{
			Oracle:       oracle,
			LockedAmount: amount,
			DepositedAt:  now,
			UpdatedAt:    now,
		}
		return nil
	}
	if bond.Slashed {
		return domain.ErrOracleSlashed
	}
	if amount > math.MaxUint64-bond.LockedAmount {
		return domain.ErrAmountOverflow
	}
	bond.LockedAmount += amount
	bond.UpdatedAt = now
	return nil
}

func (s *Store) GetBond(_ context.Context, oracle string) (domain.OracleBond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bond, ok := s.bonds[oracle]
	if !ok {
		return domain.OracleBond{}, domain.ErrNotFound
	}
	return *bond, nil
}

func (s *Store) WithdrawBond(_ context.Context, oracle string, liveAfter, now time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bond, ok := s.bonds[oracle]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if bond.Slashed {
		return 0, domain.ErrOracleSlashed
	}

	for _, rc := range s.resolutions {
		if rc.Oracle != oracle {
			continue
		}
		if !rc.Revealed {
			if rc.CommittedAt.After(liveAfter) {
				return 0, domain.ErrDisputeWindowOpen
			}
			continue
		}
		m := s.markets[rc.MarketID]
		if m != nil && !m.Cancelled && now.Before(rc.DisputeDeadline) {
			return 0, domain.ErrDisputeWindowOpen
		}
	}

	released := bond.LockedAmount
	bond.LockedAmount = 0
	bond.UpdatedAt = now
	return released, nil
}

func (s *Store) CreateResolutionCommitment(_ context.Context, rc domain.ResolutionCommitment, liveAfter time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.resolutions[rc.MarketID]
	if ok {
		if existing.Revealed {
			return domain.ErrAlreadyRevealed
		}
		if existing.CommittedAt.After(liveAfter) {
			return domain.ErrDuplicateCommitment
		}
		// Dead unrevealed commitment: superseded by the fresh one.
	}
	cp := rc
	s.resolutions[rc.MarketID] = &cp
	return nil
}

func (s *Store) GetResolutionCommitment(_ context.Context, marketID string) (domain.ResolutionCommitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rc, ok := s.resolutions[marketID]
	if !ok {
		return domain.ResolutionCommitment{}, domain.ErrNotFound
	}
	return *rc, nil
}

func (s *Store) RevealResolution(_ context.Context, marketID string, value uint64, outcome bool, now, disputeDeadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rc, ok := s.resolutions[marketID]
	if !ok {
		return domain.ErrNotFound
	}
	if rc.Revealed {
		return domain.ErrAlreadyRevealed
	}
	m, ok := s.markets[marketID]
	if !ok {
		return domain.ErrNotFound
	}

	rc.Revealed = true
	rc.Value = value
	rc.DisputeDeadline = disputeDeadline

	m.Outcome = &outcome
	m.RevealedValue = &value
	resolvedAt := now
	m.ResolvedAt = &resolvedAt
	return nil
}

func (s *Store) DisputeAndSlash(_ context.Context, marketID, oracle string, slashAmount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markets[marketID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Cancelled {
		return domain.ErrMarketResolved
	}
	bond, ok := s.bonds[oracle]
	if !ok {
		return domain.ErrNotFound
	}
	if bond.Slashed {
		return domain.ErrOracleSlashed
	}

	m.Cancelled = true
	bond.Slashed = true
	bond.SlashedAmount = slashAmount
	bond.LockedAmount -= min(slashAmount, bond.LockedAmount)
	s.state.InsuranceFund += slashAmount
	return nil
}

// --- StakeStore ---

// stakerLocked returns the staker record for owner, creating it if missing.
// Caller must hold the write lock.
func (s *Store) stakerLocked(owner string) *domain.StakerAccount {
	staker, ok := s.stakers[owner]
	if !ok {
		staker = &domain.StakerAccount{Owner: owner}
		s.stakers[owner] = staker
	}
	return staker
}

func (s *Store) GetStaker(_ context.Context, owner string) (domain.StakerAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staker, ok := s.stakers[owner]
	if !ok {
		return domain.StakerAccount{}, domain.ErrNotFound
	}
	return *staker, nil
}

func (s *Store) Stake(_ context.Context, owner string, amount uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staker := s.stakerLocked(owner)
	if amount > math.MaxUint64-staker.StakedAmount || amount > math.MaxUint64-s.state.TotalStaked {
		return domain.ErrAmountOverflow
	}
	staker.StakedAmount += amount
	staker.LastStakeAt = now
	s.state.TotalStaked += amount
	return nil
}

func (s *Store) Unstake(_ context.Context, owner string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staker, ok := s.stakers[owner]
	if !ok || staker.StakedAmount < amount {
		return domain.ErrInsufficientStake
	}
	staker.StakedAmount -= amount
	s.state.TotalStaked -= min(amount, s.state.TotalStaked)
	return nil
}

func (s *Store) GetVePosition(_ context.Context, owner string) (domain.VePosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.vePositions[owner]
	if !ok {
		return domain.VePosition{}, domain.ErrNotFound
	}
	return *p, nil
}

func (s *Store) CreateVePosition(_ context.Context, p domain.VePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vePositions[p.Owner]; ok {
		return domain.ErrAlreadyExists
	}
	cp := p
	s.vePositions[p.Owner] = &cp
	s.state.TotalVeSupply += p.VeAmount
	return nil
}

func (s *Store) DeleteVePosition(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.vePositions[owner]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.vePositions, owner)
	s.state.TotalVeSupply -= min(p.VeAmount, s.state.TotalVeSupply)
	return nil
}

func (s *Store) GetBadge(_ context.Context, owner string) (domain.VolumeBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.badges[owner]
	if !ok {
		return domain.VolumeBadge{}, domain.ErrNotFound
	}
	return *b, nil
}

func (s *Store) UpsertBadge(_ context.Context, b domain.VolumeBadge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.badges[b.Owner]; ok {
		s.state.TotalVeSupply -= min(prev.VeAmount, s.state.TotalVeSupply)
	}
	cp := b
	s.badges[b.Owner] = &cp
	s.state.TotalVeSupply += b.VeAmount
	return nil
}

func (s *Store) DeleteBadge(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.badges[owner]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.badges, owner)
	s.state.TotalVeSupply -= min(b.VeAmount, s.state.TotalVeSupply)
	return nil
}

// --- ProtocolStore ---

func (s *Store) GetState(_ context.Context) (domain.ProtocolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *Store) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Paused = paused
	return nil
}

func (s *Store) SetAuthority(_ context.Context, authority string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Authority = authority
	return nil
}

func (s *Store) PayReward(_ context.Context, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.RewardPool < amount {
		return domain.ErrNoRewards
	}
	s.state.RewardPool -= amount
	return nil
}

func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}
