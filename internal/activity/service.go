package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Evictor drops the cached storefront of a browser session.
type Evictor interface {
	Evict(sessionID string) bool
}

// Service keeps this instance's cache honest: when another instance ends a
// session, the local copy is evicted and will be restored from the token store.
type Service struct {
	Registry   Evictor
	Redis      redis.Cmdable // optional; dedups redelivered events
	InstanceID string
	Log        logrus.FieldLogger
}

// HandleEvent is installed as the consumer handler.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	if header(m, HeaderInstance) == s.InstanceID {
		return nil
	}
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message; committing it is the only way forward
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("undecodable activity event")
		return nil
	}
	if env.EventType != shop.EventSessionEnded {
		return nil
	}

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyDedup, "storefront-"+s.InstanceID, env.EventID)
		first, err := redisx.MarkOnce(ctx, s.Redis, key, redisx.TTLDedup)
		if err != nil {
			return errors.Wrap(err, "dedup")
		}
		if !first {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[shop.SessionPayload](env.Payload)
	if err != nil {
		s.Log.WithError(err).WithField("event_id", env.EventID).Warn("bad SessionEnded payload")
		return nil
	}
	if s.Registry.Evict(p.SessionID) {
		s.Log.WithFields(logrus.Fields{"session": p.SessionID, "reason": p.Reason}).Info("evicted ended session")
	}
	return nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
