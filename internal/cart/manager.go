// Package cart mirrors the backend's cart for one signed-in browser session.
// The local copy is only ever replaced by a cart the backend returned.
package cart

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

var (
	// ErrCart matches every failed cart operation.
	ErrCart = errors.New("cart: operation failed")
	// ErrInvalidQuantity is returned by Add for quantities below one; no call is made.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string        { return "cart " + e.Op + ": " + e.Err.Error() }
func (e *Error) Is(target error) bool { return target == ErrCart }
func (e *Error) Unwrap() error        { return e.Err }

type Backend interface {
	GetCart(ctx context.Context) (shop.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (shop.Cart, error)
	RemoveFromCart(ctx context.Context, productID string) (shop.Cart, error)
	ClearCart(ctx context.Context) error
}

// Notifier is told about every cart the manager commits.
type Notifier func(ctx context.Context, c shop.Cart)

type Manager struct {
	backend Backend
	log     logrus.FieldLogger
	notify  Notifier

	// flight serializes backend calls; mu guards the fields below and is never
	// held across a call, so a reset can land while a call is running.
	flight   sync.Mutex
	mu       sync.RWMutex
	cart     shop.Cart
	inflight int
	gen      uint64
}

type Option func(*Manager)

func WithLogger(l logrus.FieldLogger) Option { return func(m *Manager) { m.log = l } }

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notify = n } }

func New(b Backend, opts ...Option) *Manager {
	m := &Manager{backend: b, log: logrus.StandardLogger(), cart: shop.EmptyCart()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Cart returns a copy of the current cart.
func (m *Manager) Cart() shop.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cart.Clone()
}

// Loading reports whether a backend call is queued or running.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight > 0
}

type step func(ctx context.Context, current shop.Cart) (next shop.Cart, called bool, err error)

func (m *Manager) run(ctx context.Context, op string, fn step) (shop.Cart, error) {
	m.mu.Lock()
	m.inflight++
	gen := m.gen
	m.mu.Unlock()

	m.flight.Lock()
	defer m.flight.Unlock()

	next, called, err := fn(ctx, m.Cart())

	m.mu.Lock()
	m.inflight--
	current := m.cart.Clone()
	switch {
	case err != nil:
		m.mu.Unlock()
		m.log.WithError(err).WithField("op", op).Warn("cart call failed")
		return current, &Error{Op: op, Err: err}
	case !called:
		m.mu.Unlock()
		return current, nil
	case gen != m.gen:
		// reset while the call was running; the answer belongs to the old session
		m.mu.Unlock()
		return current, nil
	}
	if next.Items == nil {
		next.Items = []shop.CartItem{}
	}
	m.cart = next.Clone()
	m.mu.Unlock()

	if m.notify != nil {
		m.notify(ctx, next.Clone())
	}
	return next, nil
}

// Load replaces the local cart with the backend's.
func (m *Manager) Load(ctx context.Context) (shop.Cart, error) {
	return m.run(ctx, "load", func(ctx context.Context, _ shop.Cart) (shop.Cart, bool, error) {
		c, err := m.backend.GetCart(ctx)
		return c, true, err
	})
}

func (m *Manager) Add(ctx context.Context, productID string, quantity int) (shop.Cart, error) {
	if quantity < 1 {
		return m.Cart(), &Error{Op: "add", Err: ErrInvalidQuantity}
	}
	return m.run(ctx, "add", func(ctx context.Context, _ shop.Cart) (shop.Cart, bool, error) {
		c, err := m.backend.AddToCart(ctx, productID, quantity)
		return c, true, err
	})
}

func (m *Manager) Remove(ctx context.Context, productID string) (shop.Cart, error) {
	return m.run(ctx, "remove", func(ctx context.Context, _ shop.Cart) (shop.Cart, bool, error) {
		c, err := m.backend.RemoveFromCart(ctx, productID)
		return c, true, err
	})
}

// UpdateQuantity sets a line to quantity. The backend only knows "add a signed
// amount", so the change is sent as the difference to the current quantity. A
// quantity of zero or less removes the line; an unknown product is a no-op.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) (shop.Cart, error) {
	if quantity <= 0 {
		return m.Remove(ctx, productID)
	}
	return m.run(ctx, "update", func(ctx context.Context, current shop.Cart) (shop.Cart, bool, error) {
		item, ok := current.Find(productID)
		if !ok {
			return current, false, nil
		}
		delta := quantity - item.Quantity
		if delta == 0 {
			return current, false, nil
		}
		c, err := m.backend.AddToCart(ctx, productID, delta)
		return c, true, err
	})
}

// Clear empties the cart on the backend and locally, without re-fetching.
func (m *Manager) Clear(ctx context.Context) (shop.Cart, error) {
	return m.run(ctx, "clear", func(ctx context.Context, _ shop.Cart) (shop.Cart, bool, error) {
		if err := m.backend.ClearCart(ctx); err != nil {
			return shop.Cart{}, true, err
		}
		return shop.EmptyCart(), true, nil
	})
}

// Reset drops the local cart without calling the backend, and makes any call
// still running discard its answer.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.cart = shop.EmptyCart()
	m.mu.Unlock()
	if m.notify != nil {
		m.notify(ctx, shop.EmptyCart())
	}
}

// OnAuthChange follows the session: sign-in loads the cart, sign-out resets it.
func (m *Manager) OnAuthChange(ctx context.Context, authenticated bool) {
	if !authenticated {
		m.Reset(ctx)
		return
	}
	if _, err := m.Load(ctx); err != nil {
		m.log.WithError(err).Warn("load cart after sign-in")
	}
}
