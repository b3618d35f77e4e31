package orders

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-inventory-orders/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"
	EventOrderPending   = "OrderPending"

	EventVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// OrderEventPayload is shared by every order lifecycle event.
type OrderEventPayload struct {
	OrderID           string          `json:"order_id"`
	Status            Status          `json:"status"`
	Total             decimal.Decimal `json:"total"`
	Items             []ItemQty       `json:"items"`
	CreatedByUsername string          `json:"created_by_username"`
	CreatedAt         time.Time       `json:"created_at"`
}

// EventSink receives committed order state changes. Implementations must not
// block the workflow and must not fail it.
type EventSink interface {
	Emit(ctx context.Context, eventType string, o Order)
}

type nopSink struct{}

func (nopSink) Emit(context.Context, string, Order) {}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

// KafkaEvents wraps order changes in an Envelope and hands them to the producer.
type KafkaEvents struct {
	Producer Publisher
	Service  string
	Now      func() time.Time
}

func (k *KafkaEvents) Emit(ctx context.Context, eventType string, o Order) {
	now := time.Now().UTC()
	if k.Now != nil {
		now = k.Now()
	}
	ev := NewEnvelope(eventType, k.Service, TraceID(ctx), o, now)
	k.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(EventVersion))},
	)
}

func NewEnvelope(eventType, producer, traceID string, o Order, at time.Time) Envelope {
	items := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    at,
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderEventPayload{
			OrderID:           o.ID,
			Status:            o.Status,
			Total:             o.Total,
			Items:             items,
			CreatedByUsername: o.CreatedByUsername,
			CreatedAt:         o.CreatedAt,
		}),
	}
}

type traceKey struct{}

// WithTraceID attaches the request id that ends up in emitted envelopes.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
