package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("TOKEN_STORE", "")
	t.Setenv("BACKEND_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.BackendURL)
	assert.Equal(t, StoreMemory, cfg.TokenStore)
	assert.Equal(t, int64(599), cfg.ShippingCents)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 10000, cfg.MaxSessions)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NotEmpty(t, cfg.InstanceID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("BACKEND_URL", "https://shop.example.com/api/")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SHIPPING_FEE_CENTS", "0")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("INSTANCE_ID", "bff-a")
	t.Setenv("MAX_SESSIONS", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", cfg.BackendURL)
	assert.Equal(t, StoreRedis, cfg.TokenStore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Zero(t, cfg.ShippingCents)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "bff-a", cfg.InstanceID)
	assert.Equal(t, 50, cfg.MaxSessions)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store": {"TOKEN_STORE": "etcd"},
		"bad fee":       {"SHIPPING_FEE_CENTS": "5.99"},
		"negative fee":  {"SHIPPING_FEE_CENTS": "-1"},
		"bad timeout":   {"BACKEND_TIMEOUT": "soon"},
		"short secret":  {"SESSION_SECRET": "short"},
		"zero sessions": {"MAX_SESSIONS": "0"},
		"bad sessions":  {"MAX_SESSIONS": "many"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SESSION_SECRET", secret)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
