// Package service implements the protocol operations on top of the domain
// stores: market lifecycle, the two commit-reveal flows, parimutuel
// settlement, oracle bonding, staking, and administration. Services validate
// with pure functions and then delegate each mutation to a single atomic
// store operation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// ensureUnpaused rejects mutating operations while the protocol pause flag is
// set. Admin operations bypass it.
func ensureUnpaused(ctx context.Context, protocol domain.ProtocolStore) error {
	state, err := protocol.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get protocol state: %w", err)
	}
	if state.Paused {
		return domain.ErrProtocolPaused
	}
	return nil
}

// ensureAuthority rejects callers other than the protocol authority.
func ensureAuthority(ctx context.Context, protocol domain.ProtocolStore, caller string) error {
	state, err := protocol.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get protocol state: %w", err)
	}
	if caller != state.Authority {
		return domain.ErrUnauthorized
	}
	return nil
}

// publishEvent fans a protocol event out on the signal bus: a pub/sub publish
// for live subscribers and a stream append for durable replay. Bus failures
// are logged and swallowed; the store write has already landed.
func publishEvent(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, ev domain.Event) {
	if bus == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorContext(ctx, "event marshal failed",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			slog.String("channel", channel),
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
	}
	if err := bus.StreamAppend(ctx, "st:"+channel, payload); err != nil {
		logger.WarnContext(ctx, "event stream append failed",
			slog.String("channel", channel),
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
	}
}

// invalidateMarket drops a market's cache entry after a store write touched
// its row. Cache failures are logged and swallowed; the TTL bounds the
// resulting staleness.
func invalidateMarket(ctx context.Context, cache domain.MarketCache, logger *slog.Logger, marketID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, marketID); err != nil {
		logger.WarnContext(ctx, "market cache invalidate failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

func event(evType, marketID, actor string, at time.Time, fields map[string]string) domain.Event {
	return domain.Event{
		Type:      evType,
		MarketID:  marketID,
		Actor:     actor,
		Fields:    fields,
		Timestamp: at,
	}
}
