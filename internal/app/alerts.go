package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/notify"
)

// alertChannels are the bus channels watched for operator-relevant events.
// Resolutions carry disputes and slashes; markets carry creations and
// cancellations.
var alertChannels = []string{
	domain.ChannelResolutions,
	domain.ChannelMarkets,
}

// watchAlerts forwards protocol events from the signal bus to the notifier
// until ctx is cancelled. The notifier's event filter decides what actually
// goes out.
func (a *App) watchAlerts(ctx context.Context, bus domain.SignalBus, notifier *notify.Notifier) {
	for _, channel := range alertChannels {
		msgs, err := bus.Subscribe(ctx, channel)
		if err != nil {
			a.logger.WarnContext(ctx, "alert subscribe failed",
				slog.String("channel", channel),
				slog.Any("error", err),
			)
			continue
		}
		go a.forwardAlerts(ctx, msgs, notifier)
	}
}

func (a *App) forwardAlerts(ctx context.Context, msgs <-chan []byte, notifier *notify.Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-msgs:
			if !ok {
				return
			}
			var ev domain.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				continue
			}
			alert := notify.Alert{
				Event:    ev.Type,
				MarketID: ev.MarketID,
				Actor:    ev.Actor,
				Fields:   ev.Fields,
			}
			if err := notifier.Notify(ctx, alert); err != nil {
				a.logger.WarnContext(ctx, "alert delivery failed", slog.Any("error", err))
			}
		}
	}
}
