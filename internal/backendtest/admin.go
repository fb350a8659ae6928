package backendtest

import (
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func sortOrders(orders []*shop.Order) {
	sort.Slice(orders, func(i, j int) bool { return byID(orders[i].ID, orders[j].ID) })
}

func sortThreads(threads []shop.Thread) {
	sort.Slice(threads, func(i, j int) bool { return byID(threads[i].ID, threads[j].ID) })
}

// byID orders generated ids ("o2" before "o10") by creation.
func byID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (b *Backend) adminOrders(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Order{}
	for _, o := range b.sortedOrders() {
		out = append(out, *o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (b *Backend) transition(to shop.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			OrderID string `json:"order_id"`
		}
		if !decode(w, r, &in) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		o, ok := b.orders[in.OrderID]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Order not found")
			return
		}
		if !shop.CanTransition(o.Status, to) {
			writeDetail(w, http.StatusBadRequest, "Invalid status transition")
			return
		}
		now := shop.At(time.Now().UTC())
		switch to {
		case shop.StatusValidated:
			o.ValidatedAt = now
		case shop.StatusShipped:
			o.ShippedAt = now
			if o.Delivery != nil {
				o.Delivery.Status = "EN_COURS"
				o.Delivery.TrackingNumber = "TRK-" + o.ID
			}
		case shop.StatusDelivered:
			o.DeliveredAt = now
			if o.Delivery != nil {
				o.Delivery.Status = "LIVREE"
			}
		case shop.StatusRefunded:
			o.RefundedAt = now
		}
		o.Status = to
		writeJSON(w, http.StatusOK, o)
	}
}

func (b *Backend) adminProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Product{}
	for _, id := range b.order {
		out = append(out, *b.products[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createProduct(w http.ResponseWriter, r *http.Request) {
	var in shop.ProductDraft
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &shop.Product{
		ID:          b.nextID("p"),
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		StockQty:    in.StockQty,
		Active:      true,
	}
	b.products[p.ID] = p
	b.order = append(b.order, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in shop.ProductPatch
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.PriceCents != nil {
		p.PriceCents = *in.PriceCents
	}
	if in.StockQty != nil {
		p.StockQty = *in.StockQty
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) updateStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Stock int `json:"stock"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	if in.Stock < 0 {
		writeDetail(w, http.StatusBadRequest, "Stock cannot be negative")
		return
	}
	p.StockQty = in.Stock
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) stats(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := shop.Stats{
		TotalOrders:      len(b.orders),
		OrdersByStatus:   map[string]int{},
		TotalUsers:       len(b.accounts),
		TotalProducts:    len(b.products),
		LowStockProducts: []shop.Product{},
	}
	for _, o := range b.orders {
		s.OrdersByStatus[string(o.Status)]++
		if o.PaidAt != nil && o.Status != shop.StatusRefunded {
			s.TotalRevenueCents += o.TotalCents
		}
		switch o.Status {
		case shop.StatusCreated:
			s.PendingOrders++
		case shop.StatusValidated:
			s.ValidatedOrders++
		case shop.StatusShipped:
			s.ShippedOrders++
		case shop.StatusDelivered:
			s.DeliveredOrders++
		}
	}
	for _, id := range b.order {
		if p := b.products[id]; p.StockQty < 5 {
			s.LowStockProducts = append(s.LowStockProducts, *p)
		}
	}
	writeJSON(w, http.StatusOK, s)
}

func (b *Backend) adminThreads(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []shop.Thread{}
	for _, t := range b.threads {
		out = append(out, *t)
	}
	sortThreads(out)
	writeJSON(w, http.StatusOK, map[string]any{"threads": out})
}

func (b *Backend) adminThread(w http.ResponseWriter, r *http.Request) *shop.Thread {
	t, ok := b.threads[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Thread not found")
		return nil
	}
	return t
}

func (b *Backend) reply(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body string `json:"body"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.adminThread(w, r)
	if t == nil {
		return
	}
	b.appendMessage(t, nil, in.Body)
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) closeThread(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.adminThread(w, r)
	if t == nil {
		return
	}
	t.Closed = true
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer f.Close()
	if !strings.HasPrefix(hdr.Header.Get("Content-Type"), "image/") {
		writeDetail(w, http.StatusBadRequest, "File must be an image")
		return
	}
	ext := path.Ext(hdr.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_url": "/api/uploads/" + uuid.NewString() + ext})
}
