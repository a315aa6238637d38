package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/commitment"
	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/store/memory"
)

const (
	testAuthority = "0xA000000000000000000000000000000000000001"
	testTreasury  = "0xA000000000000000000000000000000000000002"
	testOracle    = "0xB000000000000000000000000000000000000001"
	testBettor    = "0xC000000000000000000000000000000000000001"
	testBettor2   = "0xC000000000000000000000000000000000000002"
	testCreator   = "0xD000000000000000000000000000000000000001"

	testBondAmount   = 1_000_000
	testSlashPercent = 50
	testFeeBps       = 300
	testMinBet       = 10
	testMaxBet       = 1_000_000_000
)

var testStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a manually advanced Clock shared by every service in a test
// environment.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// env is a full service stack over the in-memory store.
type env struct {
	clock      *fakeClock
	store      *memory.Store
	market     *MarketService
	bet        *BetService
	oracle     *OracleService
	settlement *SettlementService
	staking    *StakingService
	admin      *AdminService
}

func newEnv(t *testing.T) *env {
	return newEnvWithCache(t, nil)
}

func newEnvWithCache(t *testing.T, cache domain.MarketCache) *env {
	t.Helper()

	clock := &fakeClock{now: testStart}
	store := memory.New(testAuthority, testTreasury)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher := crypto.SHA256Hasher{}
	windows := commitment.Windows{Commit: 5 * time.Minute, Reveal: time.Hour}
	verifier := commitment.NewVerifier(hasher, windows)
	timing := domain.MarketTiming{
		ResolutionCommitWindow: windows.Commit,
		ResolutionRevealWindow: windows.Reveal,
		ResolutionTimeout:      7 * 24 * time.Hour,
	}

	return &env{
		clock: clock,
		store: store,
		market: NewMarketService(
			store, store, store, cache, nil, clock, timing, 24*time.Hour, logger,
		),
		bet: NewBetService(
			store, store, store, store, store, verifier, cache, nil, clock, timing,
			BetBounds{Min: testMinBet, Max: testMaxBet}, logger,
		),
		oracle: NewOracleService(
			store, store, store, verifier, cache, nil, clock, timing,
			OracleParams{
				BondAmount:    testBondAmount,
				SlashPercent:  testSlashPercent,
				DisputeWindow: time.Hour,
			}, logger,
		),
		settlement: NewSettlementService(
			store, store, store, store, cache, nil, clock, timing, testFeeBps, logger,
		),
		staking: NewStakingService(store, store, clock, logger),
		admin:   NewAdminService(store, logger),
	}
}

func (e *env) createMarket(t *testing.T, horizon time.Duration) domain.Market {
	t.Helper()
	m, err := e.market.CreateMarket(context.Background(), CreateMarketParams{
		ProtocolID:         "solana",
		Metric:             domain.MetricTVL,
		Comparator:         domain.CompareGTE,
		TargetValue:        1_000,
		ResolutionDeadline: e.clock.Now().Add(horizon),
		Creator:            testCreator,
	})
	require.NoError(t, err)
	return m
}

func betDigest(p crypto.BetPreimage) [32]byte {
	return crypto.SHA256Hasher{}.Sum(p.Bytes())
}

func resolutionDigest(p crypto.ResolutionPreimage) [32]byte {
	return crypto.SHA256Hasher{}.Sum(p.Bytes())
}

// placeBet commits and reveals a bet, advancing the clock just past the
// commit window. Callers give the market enough horizon for the time travel
// to stay inside the open phase.
// fakeMarketCache is an in-memory domain.MarketCache serving whatever
// snapshot was last Set, like the Redis cache does within its TTL.
type fakeMarketCache struct {
	mu      sync.Mutex
	entries map[string]domain.Market
}

func newFakeMarketCache() *fakeMarketCache {
	return &fakeMarketCache{entries: make(map[string]domain.Market)}
}

func (c *fakeMarketCache) Set(_ context.Context, m domain.Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.ID] = m
	return nil
}

func (c *fakeMarketCache) Get(_ context.Context, id string) (domain.Market, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *fakeMarketCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (e *env) placeBet(t *testing.T, marketID, bettor string, nonce, amount uint64, side domain.Side) domain.Bet {
	t.Helper()
	ctx := context.Background()

	p := crypto.BetPreimage{Amount: amount, Side: side, Nonce: nonce}
	copy(p.Salt[:], bettor)

	_, err := e.bet.CommitBet(ctx, marketID, bettor, nonce, betDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	b, err := e.bet.RevealBet(ctx, marketID, bettor, p)
	require.NoError(t, err)
	return b
}

// resolveMarket moves the clock to the market's deadline, runs the oracle
// commit-reveal with the given metric value, and optionally waits out the
// dispute window.
func (e *env) resolveMarket(t *testing.T, m domain.Market, value uint64, waitDispute bool) {
	t.Helper()
	ctx := context.Background()

	if _, err := e.oracle.GetBond(ctx, testOracle); err != nil {
		_, err = e.oracle.DepositBond(ctx, testOracle, testBondAmount)
		require.NoError(t, err)
	}

	if e.clock.Now().Before(m.ResolutionDeadline) {
		e.clock.Set(m.ResolutionDeadline)
	}

	p := crypto.ResolutionPreimage{Value: value, Nonce: 1}
	_, err := e.oracle.CommitResolution(ctx, m.ID, testOracle, resolutionDigest(p))
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	_, err = e.oracle.RevealResolution(ctx, m.ID, testOracle, p)
	require.NoError(t, err)

	if waitDispute {
		e.clock.Advance(time.Hour + time.Second)
	}
}
