package activity

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type captured struct {
	key, value []byte
	headers    []kafkago.Header
}

type fakeSink struct {
	msgs []captured
	full bool
}

func (f *fakeSink) Publish(key, value []byte, headers ...kafkago.Header) bool {
	if f.full {
		return false
	}
	f.msgs = append(f.msgs, captured{key, value, headers})
	return true
}

type fakeRegistry struct{ evicted []string }

func (r *fakeRegistry) Evict(id string) bool {
	r.evicted = append(r.evicted, id)
	return true
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestPublisherEnvelope(t *testing.T) {
	sink := &fakeSink{}
	p := &Publisher{Sink: sink, ServiceName: "storefront", InstanceID: "bff-a", Log: quiet()}

	p.Publish(context.Background(), shop.EventSessionEnded, "sess-1",
		shop.SessionPayload{SessionID: "sess-1", UserID: "u1", Reason: shop.ReasonExpired})

	require.Len(t, sink.msgs, 1)
	m := sink.msgs[0]
	assert.Equal(t, []byte("sess-1"), m.key)

	var env shop.Envelope
	require.NoError(t, json.Unmarshal(m.value, &env))
	assert.Equal(t, shop.EventSessionEnded, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "storefront", env.Producer)
	assert.Equal(t, "sess-1", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)
	assert.JSONEq(t, `{"session_id":"sess-1","user_id":"u1","reason":"expired"}`, string(env.Payload))
	assert.Equal(t, "bff-a", header(kafkago.Message{Headers: m.headers}, HeaderInstance))
}

func TestPublisherDropIsQuiet(t *testing.T) {
	p := &Publisher{Sink: &fakeSink{full: true}, Log: quiet()}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), shop.EventCartChanged, "sess-1", shop.CartChangedPayload{})
	})
}

func TestHandleEventEvictsEndedSessions(t *testing.T) {
	sink := &fakeSink{}
	(&Publisher{Sink: sink, ServiceName: "storefront", InstanceID: "bff-a"}).
		Publish(context.Background(), shop.EventSessionEnded, "sess-9", shop.SessionPayload{SessionID: "sess-9"})
	(&Publisher{Sink: sink, ServiceName: "storefront", InstanceID: "bff-a"}).
		Publish(context.Background(), shop.EventCartChanged, "sess-9", shop.CartChangedPayload{SessionID: "sess-9"})

	reg := &fakeRegistry{}
	svc := &Service{Registry: reg, InstanceID: "bff-b", Log: quiet()}
	for _, m := range sink.msgs {
		require.NoError(t, svc.HandleEvent(context.Background(), kafkago.Message{Key: m.key, Value: m.value, Headers: m.headers}))
	}
	assert.Equal(t, []string{"sess-9"}, reg.evicted)
}

func TestHandleEventSkipsOwnEvents(t *testing.T) {
	sink := &fakeSink{}
	(&Publisher{Sink: sink, InstanceID: "bff-a"}).
		Publish(context.Background(), shop.EventSessionEnded, "sess-9", shop.SessionPayload{SessionID: "sess-9"})

	reg := &fakeRegistry{}
	svc := &Service{Registry: reg, InstanceID: "bff-a", Log: quiet()}
	m := sink.msgs[0]
	require.NoError(t, svc.HandleEvent(context.Background(), kafkago.Message{Value: m.value, Headers: m.headers}))
	assert.Empty(t, reg.evicted)
}

func TestHandleEventPoisonMessage(t *testing.T) {
	svc := &Service{Registry: &fakeRegistry{}, InstanceID: "bff-b", Log: quiet()}
	assert.NoError(t, svc.HandleEvent(context.Background(), kafkago.Message{Value: []byte("not json")}))
}
