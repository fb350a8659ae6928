package httpx

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/backendtest"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/ariefcatur/go-storefront/internal/storefront"
)

func testRegistry(t *testing.T, store session.TokenStore, opts ...RegistryOption) (*Registry, *backendtest.Backend) {
	b := backendtest.New(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	client := api.New(b.URL(), nil)
	r := NewRegistry(func(sid string) *storefront.Storefront {
		return storefront.New(storefront.Options{SessionID: sid, Client: client, Store: store, Logger: log})
	}, log, opts...)
	return r, b
}

func TestRegistryGetCachesPerSession(t *testing.T) {
	r, _ := testRegistry(t, session.NewMemoryStore())

	a := r.Get("one")
	assert.Same(t, a, r.Get("one"))
	assert.NotSame(t, a, r.Get("two"))
	assert.Equal(t, 2, r.Len())

	assert.True(t, r.Evict("one"))
	assert.False(t, r.Evict("one"))
	assert.NotSame(t, a, r.Get("one"))
}

func TestRegistryRestoresInBackground(t *testing.T) {
	store := session.NewMemoryStore()
	r, b := testRegistry(t, store)
	b.AddUser("alice@example.com", "password123", false)
	b.Grant("tok-1", "alice@example.com")
	require.NoError(t, store.Save(context.Background(), "sid-1", "tok-1"))

	gate := b.Hold(http.MethodGet, "/auth/me")
	defer gate.Release()

	sf := r.Get("sid-1")
	<-gate.Entered
	assert.True(t, sf.State().Loading)

	gate.Release()
	require.Eventually(t, func() bool {
		st := sf.State()
		return !st.Loading && st.Authenticated
	}, 2*time.Second, 10*time.Millisecond)
	u, ok := sf.Session.User()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestRegistrySweep(t *testing.T) {
	r, _ := testRegistry(t, session.NewMemoryStore())
	r.Get("old")
	r.mu.Lock()
	r.entries["old"].lastSeen = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	r.Get("fresh")

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())
	r.mu.Lock()
	_, ok := r.entries["fresh"]
	r.mu.Unlock()
	assert.True(t, ok)
}

func TestRegistryLimitDropsLeastRecentlyUsed(t *testing.T) {
	r, _ := testRegistry(t, session.NewMemoryStore(), WithLimit(2))
	a := r.Get("a")
	r.Get("b")
	r.mu.Lock()
	r.entries["b"].lastSeen = time.Now().Add(-time.Minute)
	r.mu.Unlock()

	r.Get("c")
	assert.Equal(t, 2, r.Len())
	assert.Same(t, a, r.Get("a"))
	r.mu.Lock()
	_, hasB := r.entries["b"]
	r.mu.Unlock()
	assert.False(t, hasB)
}
