package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkax "github.com/ariefcatur/go-inventory-orders/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// LiveEvent is what dashboard websocket clients receive.
type LiveEvent struct {
	Type       string                   `json:"type"`
	OccurredAt time.Time                `json:"occurred_at"`
	Order      orders.OrderEventPayload `json:"order"`
}

// Feed consumes order events: it drops cached summaries and pushes the event
// to live dashboards.
type Feed struct {
	Hub     *Hub
	Summary *Service
	Log     *slog.Logger
}

// Handle satisfies kafka.Handler. Malformed messages are logged and
// acknowledged so they do not block the partition.
func (f *Feed) Handle(ctx context.Context, m kafkago.Message) error {
	var ev orders.Envelope
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		f.Log.Warn("feed: bad envelope", "err", err, "offset", m.Offset)
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.OrderEventPayload](ev.Payload)
	if err != nil {
		f.Log.Warn("feed: bad payload", "err", err, "event_id", ev.EventID)
		return nil
	}

	if f.Summary != nil {
		if err := f.Summary.Invalidate(ctx); err != nil {
			// retry lewat redelivery
			return fmt.Errorf("invalidate dashboard cache: %w", err)
		}
	}

	f.Hub.Broadcast(kafkax.MustMarshal(LiveEvent{
		Type:       ev.EventType,
		OccurredAt: ev.OccurredAt,
		Order:      p,
	}))
	f.Log.Debug("feed: event forwarded", "event_type", ev.EventType, "order_id", p.OrderID, "clients", f.Hub.ClientCount())
	return nil
}
