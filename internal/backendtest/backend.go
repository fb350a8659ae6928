// Package backendtest runs an in-memory storefront backend on httptest for tests.
// It speaks the same wire format as the real backend: {"detail": ...} error bodies,
// bearer tokens, cents amounts and the backend's order status values.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// TestCard is the only card number the simulated payment accepts.
const TestCard = "4242424242424242"

type account struct {
	user     shop.User
	password string
}

type failure struct {
	status int
	detail string
}

// Gate holds one matching request until Release is called.
type Gate struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

type Backend struct {
	srv *httptest.Server

	mu       sync.Mutex
	seq      int
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> user id
	products map[string]*shop.Product
	order    []string // product ids in creation order
	carts    map[string][]shop.CartItem
	orders   map[string]*shop.Order
	threads  map[string]*shop.Thread
	calls    map[string]int
	total    int
	failures map[string]failure
	gates    map[string]*Gate
}

func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		products: map[string]*shop.Product{},
		carts:    map[string][]shop.CartItem{},
		orders:   map[string]*shop.Order{},
		threads:  map[string]*shop.Thread{},
		calls:    map[string]int{},
		failures: map[string]failure{},
		gates:    map[string]*Gate{},
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// Close shuts the server down; later calls fail at the transport.
func (b *Backend) Close() { b.srv.Close() }

// URL is the API base, including the /api prefix.
func (b *Backend) URL() string { return b.srv.URL + "/api" }

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%d", prefix, b.seq)
}

func (b *Backend) AddUser(email, password string, admin bool) shop.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := shop.User{
		ID:        b.nextID("u"),
		Email:     email,
		FirstName: strings.SplitN(email, "@", 2)[0],
		LastName:  "Test",
		Address:   "1 Test Street",
		IsAdmin:   admin,
	}
	b.accounts[email] = &account{user: u, password: password}
	return u
}

func (b *Backend) AddProduct(name string, priceCents int64, stock int) shop.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &shop.Product{
		ID:          b.nextID("p"),
		Name:        name,
		Description: name,
		PriceCents:  priceCents,
		StockQty:    stock,
		Active:      true,
	}
	b.products[p.ID] = p
	b.order = append(b.order, p.ID)
	return *p
}

// Grant makes token valid for the account registered under email.
func (b *Backend) Grant(token, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[email]; ok {
		b.tokens[token] = a.user.ID
	}
}

// Revoke invalidates token; later calls made with it get 401.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// RevokeAll invalidates every issued token.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = map[string]string{}
}

// Calls counts requests for method and path, where path omits the /api prefix.
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// FailNext makes the next request for method and path answer status with detail.
func (b *Backend) FailNext(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, detail: detail}
}

// Hold parks the next request for method and path until the gate is released.
func (b *Backend) Hold(method, path string) *Gate {
	g := &Gate{Entered: make(chan struct{}), release: make(chan struct{})}
	b.mu.Lock()
	b.gates[method+" "+path] = g
	b.mu.Unlock()
	return g
}

// CartOf returns the backend's cart for the user with email.
func (b *Backend) CartOf(email string) shop.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[email]
	if !ok {
		return shop.EmptyCart()
	}
	return b.cartLocked(a.user.ID)
}

// SetOrderStatus forces an order into status, for scenarios the public endpoints cannot reach.
func (b *Backend) SetOrderStatus(id string, st shop.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.orders[id]; ok {
		o.Status = st
		if st == shop.StatusPaid && o.PaidAt == nil {
			o.PaidAt = shop.At(time.Now())
		}
	}
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.intercept)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", b.login)
		r.Post("/auth/register", b.register)
		r.Get("/catalog/products", b.listProducts)
		r.Get("/catalog/products/{id}", b.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/auth/me", b.me)
			r.Put("/auth/me", b.updateMe)

			r.Get("/cart", b.getCart)
			r.Post("/cart/add", b.addToCart)
			r.Delete("/cart/remove/{id}", b.removeFromCart)
			r.Delete("/cart/clear", b.clearCart)

			r.Post("/orders/checkout", b.checkout)
			r.Post("/orders/pay", b.pay)
			r.Post("/orders/cancel", b.cancel)
			r.Get("/orders", b.listOrders)
			r.Get("/orders/{id}", b.getOrder)

			r.Post("/support/threads", b.createThread)
			r.Get("/support/threads", b.listThreads)
			r.Get("/support/threads/{id}", b.getThread)
			r.Post("/support/threads/{id}/messages", b.postMessage)

			r.Route("/admin", func(r chi.Router) {
				r.Use(b.adminOnly)
				r.Get("/orders", b.adminOrders)
				r.Post("/orders/validate", b.transition(shop.StatusValidated))
				r.Post("/orders/ship", b.transition(shop.StatusShipped))
				r.Post("/orders/deliver", b.transition(shop.StatusDelivered))
				r.Post("/orders/refund", b.transition(shop.StatusRefunded))
				r.Get("/products", b.adminProducts)
				r.Post("/products", b.createProduct)
				r.Put("/products/{id}", b.updateProduct)
				r.Put("/products/{id}/stock", b.updateStock)
				r.Post("/upload-image", b.uploadImage)
				r.Get("/stats", b.stats)
				r.Get("/support/threads", b.adminThreads)
				r.Post("/support/threads/{id}/reply", b.reply)
				r.Post("/support/threads/{id}/close", b.closeThread)
			})
		})
	})
	return r
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		b.mu.Lock()
		b.calls[key]++
		b.total++
		f, failing := b.failures[key]
		delete(b.failures, key)
		g := b.gates[key]
		delete(b.gates, key)
		b.mu.Unlock()

		if g != nil {
			close(g.Entered)
			select {
			case <-g.release:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (b *Backend) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		uid, ok := b.tokens[token]
		b.mu.Unlock()
		if token == "" || !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, uid)))
	})
}

func (b *Backend) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		a := b.accountByID(userID(r))
		b.mu.Unlock()
		if a == nil || !a.user.IsAdmin {
			writeDetail(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) accountByID(id string) *account {
	for _, a := range b.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (b *Backend) issueLocked(userID string) string {
	token := "tok-" + uuid.NewString()
	b.tokens[token] = userID
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return false
	}
	return true
}
