package backendtest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func contextWithUser(r *http.Request, uid string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, uid)
}

func userID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[in.Email]
	if !ok || a.password != in.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": b.issueLocked(a.user.ID), "token_type": "bearer"})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in shop.Registration
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[in.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := shop.User{
		ID:        b.nextID("u"),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Address:   in.Address,
	}
	b.accounts[in.Email] = &account{user: u, password: in.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"token": b.issueLocked(u.ID), "token_type": "bearer"})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.accountByID(userID(r)).user)
}

func (b *Backend) updateMe(w http.ResponseWriter, r *http.Request) {
	var in shop.ProfileUpdate
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.accountByID(userID(r))
	if in.FirstName != nil {
		a.user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		a.user.LastName = *in.LastName
	}
	if in.Address != nil {
		a.user.Address = *in.Address
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (b *Backend) listProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Product{}
	for _, id := range b.order {
		if p := b.products[id]; p.Active {
			out = append(out, *p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[chi.URLParam(r, "id")]
	if !ok || !p.Active {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) cartLocked(uid string) shop.Cart {
	c := shop.EmptyCart()
	for _, it := range b.carts[uid] {
		if p, ok := b.products[it.ProductID]; ok {
			it.ProductName = p.Name
			it.UnitPriceCents = p.PriceCents
			it.ImageURL = p.ImageURL
		}
		it.LineTotalCents = it.UnitPriceCents * int64(it.Quantity)
		c.Items = append(c.Items, it)
		c.TotalCents += it.LineTotalCents
	}
	return c
}

func (b *Backend) getCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.cartLocked(userID(r)))
}

// addToCart adds a signed quantity; a line reaching zero or below is dropped.
func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[in.ProductID]
	if !ok || !p.Active {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	items := b.carts[uid]
	idx := -1
	for i, it := range items {
		if it.ProductID == in.ProductID {
			idx = i
		}
	}
	current := 0
	if idx >= 0 {
		current = items[idx].Quantity
	}
	next := current + in.Quantity
	if next > p.StockQty {
		writeDetail(w, http.StatusBadRequest, "Insufficient stock")
		return
	}
	switch {
	case next <= 0 && idx >= 0:
		items = append(items[:idx], items[idx+1:]...)
	case next <= 0:
	case idx >= 0:
		items[idx].Quantity = next
	default:
		items = append(items, shop.CartItem{ProductID: p.ID, Quantity: next})
	}
	b.carts[uid] = items
	writeJSON(w, http.StatusOK, b.cartLocked(uid))
}

func (b *Backend) removeFromCart(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.carts[uid]
	for i, it := range items {
		if it.ProductID == id {
			b.carts[uid] = append(items[:i], items[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, b.cartLocked(uid))
}

func (b *Backend) clearCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.carts, userID(r))
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) checkout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if !decode(w, r, &in) {
		return
	}
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartLocked(uid)
	if len(c.Items) == 0 {
		writeDetail(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	o := &shop.Order{
		ID:         b.nextID("o"),
		UserID:     uid,
		Status:     shop.StatusCreated,
		TotalCents: c.TotalCents,
		CreatedAt:  shop.Timestamp{Time: time.Now().UTC()},
		Delivery:   &shop.Delivery{Address: in.ShippingAddress, Status: "PREPAREE"},
	}
	for _, it := range c.Items {
		o.Items = append(o.Items, shop.OrderItem{
			ProductID:      it.ProductID,
			Name:           it.ProductName,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents,
		})
		b.products[it.ProductID].StockQty -= it.Quantity
	}
	b.orders[o.ID] = o
	delete(b.carts, uid)
	writeJSON(w, http.StatusCreated, o)
}

func (b *Backend) ownOrder(w http.ResponseWriter, r *http.Request, id string) *shop.Order {
	o, ok := b.orders[id]
	if !ok || o.UserID != userID(r) {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return nil
	}
	return o
}

func (b *Backend) pay(w http.ResponseWriter, r *http.Request) {
	var in shop.PaymentRequest
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.ownOrder(w, r, in.OrderID)
	if o == nil {
		return
	}
	if o.PaidAt != nil {
		writeDetail(w, http.StatusBadRequest, "Order already paid")
		return
	}
	if !shop.CanTransition(o.Status, shop.StatusPaid) {
		writeDetail(w, http.StatusBadRequest, "Order cannot be paid")
		return
	}
	if in.CardNumber != TestCard {
		writeDetail(w, http.StatusPaymentRequired, "Payment declined")
		return
	}
	o.Status = shop.StatusPaid
	o.PaidAt = shop.At(time.Now().UTC())
	o.PaymentID = b.nextID("pay")
	writeJSON(w, http.StatusOK, shop.Payment{ID: o.PaymentID, OrderID: o.ID, AmountCents: o.TotalCents, Succeeded: true})
}

func (b *Backend) cancel(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OrderID string `json:"order_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.ownOrder(w, r, in.OrderID)
	if o == nil {
		return
	}
	if o.Status != shop.StatusCreated || o.PaidAt != nil {
		writeDetail(w, http.StatusBadRequest, "Order cannot be cancelled")
		return
	}
	o.Status = shop.StatusCanceled
	o.CancelledAt = shop.At(time.Now().UTC())
	for _, it := range o.Items {
		if p, ok := b.products[it.ProductID]; ok {
			p.StockQty += it.Quantity
		}
	}
	writeJSON(w, http.StatusOK, o)
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Order{}
	for _, o := range b.sortedOrders() {
		if o.UserID == uid {
			out = append(out, *o)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.ownOrder(w, r, chi.URLParam(r, "id")); o != nil {
		writeJSON(w, http.StatusOK, o)
	}
}

func (b *Backend) sortedOrders() []*shop.Order {
	out := make([]*shop.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sortOrders(out)
	return out
}

func (b *Backend) createThread(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Subject        string  `json:"subject"`
		InitialMessage string  `json:"initial_message"`
		OrderID        *string `json:"order_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &shop.Thread{ID: b.nextID("t"), UserID: uid, OrderID: in.OrderID, Subject: in.Subject}
	b.appendMessage(t, &uid, in.InitialMessage)
	b.threads[t.ID] = t
	writeJSON(w, http.StatusCreated, t)
}

func (b *Backend) appendMessage(t *shop.Thread, author *string, body string) {
	name := "Support"
	if author != nil {
		if a := b.accountByID(*author); a != nil {
			name = a.user.DisplayName()
		}
	}
	t.Messages = append(t.Messages, shop.Message{
		ID:           b.nextID("m"),
		ThreadID:     t.ID,
		AuthorUserID: author,
		AuthorName:   name,
		Body:         body,
		CreatedAt:    shop.Timestamp{Time: time.Now().UTC()},
	})
}

func (b *Backend) ownThread(w http.ResponseWriter, r *http.Request) *shop.Thread {
	t, ok := b.threads[chi.URLParam(r, "id")]
	if !ok || t.UserID != userID(r) {
		writeDetail(w, http.StatusNotFound, "Thread not found")
		return nil
	}
	return t
}

func (b *Backend) listThreads(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Thread{}
	for _, t := range b.threads {
		if t.UserID == uid {
			out = append(out, *t)
		}
	}
	sortThreads(out)
	writeJSON(w, http.StatusOK, map[string]any{"threads": out})
}

func (b *Backend) getThread(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t := b.ownThread(w, r); t != nil {
		writeJSON(w, http.StatusOK, t)
	}
}

func (b *Backend) postMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body string `json:"body"`
	}
	if !decode(w, r, &in) {
		return
	}
	uid := userID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.ownThread(w, r)
	if t == nil {
		return
	}
	if t.Closed {
		writeDetail(w, http.StatusBadRequest, "Thread is closed")
		return
	}
	b.appendMessage(t, &uid, in.Body)
	writeJSON(w, http.StatusOK, t)
}
