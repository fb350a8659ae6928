package cart_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/backendtest"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

type fixture struct {
	b     *backendtest.Backend
	m     *cart.Manager
	mug   shop.Product
	lamp  shop.Product
	mu    sync.Mutex
	seen  []shop.Cart
	token string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{b: backendtest.New(t), token: "tok-alice"}
	f.b.AddUser("alice@example.com", "secret1", false)
	f.b.Grant(f.token, "alice@example.com")
	f.mug = f.b.AddProduct("Mug", 1250, 10)
	f.lamp = f.b.AddProduct("Lamp", 4000, 2)
	client := api.New(f.b.URL(), nil).WithSession(api.TokenFunc(func() string { return f.token }), nil)
	f.m = cart.New(client, cart.WithNotifier(func(_ context.Context, c shop.Cart) {
		f.mu.Lock()
		f.seen = append(f.seen, c)
		f.mu.Unlock()
	}))
	return f
}

func (f *fixture) notifications() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestStartsEmpty(t *testing.T) {
	f := newFixture(t)
	c := f.m.Cart()
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)
	assert.False(t, f.m.Loading())
}

func TestAddReplacesWithServerCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.m.Add(ctx, f.mug.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, f.b.CartOf("alice@example.com"), c)
	assert.Equal(t, c, f.m.Cart())
	require.NoError(t, c.Consistent())
	assert.Equal(t, int64(2500), c.TotalCents)
	assert.Equal(t, 1, f.notifications())
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.Add(context.Background(), f.mug.ID, 0)
	require.ErrorIs(t, err, cart.ErrCart)
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
	assert.Zero(t, f.b.TotalCalls())
}

func TestFailureKeepsPriorCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, err := f.m.Add(ctx, f.mug.ID, 1)
	require.NoError(t, err)

	got, err := f.m.Add(ctx, f.lamp.ID, 5)
	require.ErrorIs(t, err, cart.ErrCart)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	assert.Equal(t, "Insufficient stock", api.Message(err))
	assert.Equal(t, before, got)
	assert.Equal(t, before, f.m.Cart())
	assert.False(t, f.m.Loading())
}

func TestUpdateQuantitySendsDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, f.mug.ID, 5)
	require.NoError(t, err)

	c, err := f.m.UpdateQuantity(ctx, f.mug.ID, 2)
	require.NoError(t, err)
	item, ok := c.Find(f.mug.ID)
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 2, f.b.Calls(http.MethodPost, "/cart/add"))
	assert.Zero(t, f.b.Calls(http.MethodDelete, "/cart/remove/"+f.mug.ID))

	c, err = f.m.UpdateQuantity(ctx, f.mug.ID, 4)
	require.NoError(t, err)
	item, _ = c.Find(f.mug.ID)
	assert.Equal(t, 4, item.Quantity)
}

func TestUpdateQuantitySameValueMakesNoCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, f.mug.ID, 3)
	require.NoError(t, err)
	calls := f.b.TotalCalls()

	c, err := f.m.UpdateQuantity(ctx, f.mug.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, calls, f.b.TotalCalls())
	item, _ := c.Find(f.mug.ID)
	assert.Equal(t, 3, item.Quantity)
}

func TestUpdateQuantityUnknownProductIsNoop(t *testing.T) {
	f := newFixture(t)
	c, err := f.m.UpdateQuantity(context.Background(), "nope", 3)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, f.b.TotalCalls())
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, f.mug.ID, 3)
	require.NoError(t, err)

	c, err := f.m.UpdateQuantity(ctx, f.mug.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 1, f.b.Calls(http.MethodDelete, "/cart/remove/"+f.mug.ID))
}

func TestClearEmptiesWithoutRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, f.mug.ID, 1)
	require.NoError(t, err)

	c, err := f.m.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, shop.EmptyCart(), c)
	assert.Equal(t, shop.EmptyCart(), f.m.Cart())
	assert.Zero(t, f.b.Calls(http.MethodGet, "/cart"))
}

func TestLoadingDuringCall(t *testing.T) {
	f := newFixture(t)
	gate := f.b.Hold(http.MethodGet, "/cart")
	done := make(chan error, 1)
	go func() {
		_, err := f.m.Load(context.Background())
		done <- err
	}()

	<-gate.Entered
	assert.True(t, f.m.Loading())
	gate.Release()
	require.NoError(t, <-done)
	assert.False(t, f.m.Loading())
}

func TestLoadingClearsAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.b.FailNext(http.MethodGet, "/cart", http.StatusInternalServerError, "boom")
	_, err := f.m.Load(context.Background())
	require.ErrorIs(t, err, cart.ErrCart)
	assert.False(t, f.m.Loading())
}

func TestResetDiscardsResponseInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gate := f.b.Hold(http.MethodPost, "/cart/add")
	done := make(chan shop.Cart, 1)
	go func() {
		c, _ := f.m.Add(ctx, f.mug.ID, 1)
		done <- c
	}()

	<-gate.Entered
	f.m.Reset(ctx)
	gate.Release()

	got := <-done
	assert.Empty(t, got.Items)
	assert.Empty(t, f.m.Cart().Items)
}

func TestOnAuthChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, f.mug.ID, 2)
	require.NoError(t, err)

	f.m.OnAuthChange(ctx, false)
	assert.Empty(t, f.m.Cart().Items)

	f.m.OnAuthChange(ctx, true)
	item, ok := f.m.Cart().Find(f.mug.ID)
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.m.Add(ctx, f.mug.ID, 1)
		}()
	}
	wg.Wait()

	item, ok := f.m.Cart().Find(f.mug.ID)
	require.True(t, ok)
	assert.Equal(t, 8, item.Quantity)
	assert.Equal(t, f.b.CartOf("alice@example.com"), f.m.Cart())
	assert.False(t, f.m.Loading())
}
