package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
)

// SettlementReport is one archived terminal market: the market's final
// snapshot plus every revealed bet, serialized as a single JSONL record per
// entity.
type SettlementReport struct {
	Market     domain.Market `json:"market"`
	BetCount   int           `json:"bet_count"`
	ArchivedAt time.Time     `json:"archived_at"`
}

// Archiver implements domain.Archiver: it collects markets that reached a
// terminal state before the retention cutoff, serializes each with its bets
// to JSONL, and uploads the reports to object storage. Uploads are keyed by
// market ID, so re-archiving a market overwrites the same object and the
// operation stays idempotent.
type Archiver struct {
	writer    domain.BlobWriter
	markets   domain.MarketStore
	bets      domain.BetStore
	clock     domain.Clock
	retention time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewArchiver creates an Archiver. Markets qualify once their resolution
// deadline is older than the retention window and they carry a terminal
// state.
func NewArchiver(
	writer domain.BlobWriter,
	markets domain.MarketStore,
	bets domain.BetStore,
	clock domain.Clock,
	retention time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Archiver {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Archiver{
		writer:    writer,
		markets:   markets,
		bets:      bets,
		clock:     clock,
		retention: retention,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ArchiveSettled uploads one settlement report per qualifying market and
// returns the number archived.
func (a *Archiver) ArchiveSettled(ctx context.Context) (int, error) {
	now := a.clock.Now()
	cutoff := now.Add(-a.retention)

	markets, err := a.markets.ListSettledBefore(ctx, cutoff, a.batchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list settled markets: %w", err)
	}

	archived := 0
	for _, m := range markets {
		if err := a.archiveMarket(ctx, m, now); err != nil {
			return archived, fmt.Errorf("s3blob: archive market %s: %w", m.ID, err)
		}
		archived++
	}

	if archived > 0 {
		a.logger.InfoContext(ctx, "archived settlement reports",
			slog.Int("count", archived),
			slog.Time("cutoff", cutoff),
		)
	}
	return archived, nil
}

// archiveMarket serializes the market header followed by one JSONL line per
// bet and uploads the result.
func (a *Archiver) archiveMarket(ctx context.Context, m domain.Market, now time.Time) error {
	bets, err := a.bets.ListBetsByMarket(ctx, m.ID, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("list bets: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	header := SettlementReport{
		Market:     m,
		BetCount:   len(bets),
		ArchivedAt: now,
	}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("encode report header: %w", err)
	}
	for _, b := range bets {
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("encode bet: %w", err)
		}
	}

	key := archiveKey(m, now)
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// archiveKey partitions reports by resolution date for prefix listing.
func archiveKey(m domain.Market, now time.Time) string {
	at := now
	if m.ResolvedAt != nil {
		at = *m.ResolvedAt
	}
	return fmt.Sprintf("settlements/%s/market-%s.jsonl", at.UTC().Format("2006/01/02"), m.ID)
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
