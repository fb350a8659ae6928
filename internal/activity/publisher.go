// Package activity carries storefront activity events over Kafka and reacts to
// the ones other instances emit.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
	HeaderInstance     = "x-instance-id"
)

// Sink is the producer side; *kafka.Producer satisfies it.
type Sink interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Publisher struct {
	Sink        Sink
	ServiceName string
	InstanceID  string
	Log         logrus.FieldLogger
}

// Publish wraps payload in an envelope keyed by the browser session id.
func (p *Publisher) Publish(_ context.Context, eventType, correlationID string, payload any) {
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.ServiceName,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	ok := p.Sink.Publish(shop.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafkago.Header{Key: HeaderEventVersion, Value: []byte("1")},
		kafkago.Header{Key: HeaderInstance, Value: []byte(p.InstanceID)},
	)
	if !ok && p.Log != nil {
		p.Log.WithField("event_type", eventType).Warn("activity event dropped")
	}
}
