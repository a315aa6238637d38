// Package notify delivers operator alerts for protocol events such as
// disputes, slashes and market cancellations. Alerts fan out to all
// registered senders and can be filtered by event type so operators only
// hear about the events they care about.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// Alert is one operator-facing protocol event.
type Alert struct {
	Event    string
	MarketID string
	Actor    string
	Fields   map[string]string
}

// Title renders the alert headline.
func (a Alert) Title() string {
	return "sealbet: " + a.Event
}

// Body renders the alert detail as stable key=value pairs.
func (a Alert) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "market=%s", a.MarketID)
	if a.Actor != "" {
		fmt.Fprintf(&b, " actor=%s", a.Actor)
	}
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, a.Fields[k])
	}
	return b.String()
}

// Sender delivers an alert over one channel.
type Sender interface {
	Send(ctx context.Context, a Alert) error
	// Name identifies the channel, e.g. "telegram".
	Name() string
}

// Notifier fans alerts out to its senders. When an allow-list of event types
// is configured, alerts outside the list are dropped; an empty list lets
// everything through.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the alert to every sender, subject to the event filter.
// One sender failing does not stop delivery to the others; failures are
// collected into a combined error.
func (n *Notifier) Notify(ctx context.Context, a Alert) error {
	if len(n.events) > 0 && !n.events[a.Event] {
		n.logger.DebugContext(ctx, "alert filtered out",
			slog.String("event", a.Event),
		)
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, a); err != nil {
			n.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert sent",
			slog.String("sender", s.Name()),
			slog.String("event", a.Event),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// postJSON marshals payload and POSTs it, treating any non-2xx status as an
// error with a truncated response body.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
