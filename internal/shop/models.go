package shop

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	IsAdmin   bool   `json:"is_admin"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

// ProfileUpdate carries only the fields to change; nil fields are left as-is by the backend.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Address   *string `json:"address,omitempty"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	StockQty    int    `json:"stock_qty"`
	Active      bool   `json:"active"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ProductDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	StockQty    int    `json:"stock_qty"`
}

type ProductPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	StockQty    *int    `json:"stock_qty,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type CartItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
	ImageURL       string `json:"image_url,omitempty"`
}

// Cart is always the backend's view; the client never computes it.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

func EmptyCart() Cart { return Cart{Items: []CartItem{}} }

func (c Cart) Find(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, TotalCents: c.TotalCents}
}

// Consistent reports the first broken pricing invariant of c, if any.
func (c Cart) Consistent() error {
	seen := make(map[string]bool, len(c.Items))
	var sum int64
	for _, it := range c.Items {
		if seen[it.ProductID] {
			return fmt.Errorf("duplicate line for product %s", it.ProductID)
		}
		seen[it.ProductID] = true
		if it.Quantity < 1 {
			return fmt.Errorf("invalid quantity %d for product %s", it.Quantity, it.ProductID)
		}
		if it.LineTotalCents != it.UnitPriceCents*int64(it.Quantity) {
			return fmt.Errorf("line total %d != %d x %d for product %s",
				it.LineTotalCents, it.UnitPriceCents, it.Quantity, it.ProductID)
		}
		sum += it.LineTotalCents
	}
	if sum != c.TotalCents {
		return fmt.Errorf("cart total %d != sum of lines %d", c.TotalCents, sum)
	}
	return nil
}

type OrderItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Delivery struct {
	ID             string `json:"id"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Address        string `json:"address"`
	Status         string `json:"status"`
}

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	Status      Status      `json:"status"` // see status.go
	TotalCents  int64       `json:"total_cents"`
	CreatedAt   Timestamp   `json:"created_at"`
	ValidatedAt *Timestamp  `json:"validated_at,omitempty"`
	PaidAt      *Timestamp  `json:"paid_at,omitempty"`
	ShippedAt   *Timestamp  `json:"shipped_at,omitempty"`
	DeliveredAt *Timestamp  `json:"delivered_at,omitempty"`
	CancelledAt *Timestamp  `json:"cancelled_at,omitempty"`
	RefundedAt  *Timestamp  `json:"refunded_at,omitempty"`
	Delivery    *Delivery   `json:"delivery,omitempty"`
	InvoiceID   string      `json:"invoice_id,omitempty"`
	PaymentID   string      `json:"payment_id,omitempty"`
}

type PaymentRequest struct {
	OrderID    string `json:"order_id"`
	CardNumber string `json:"card_number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
}

type Payment struct {
	ID          string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Succeeded   bool   `json:"succeeded"`
}

type Message struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	AuthorUserID *string   `json:"author_user_id"` // nil = staff
	AuthorName   string    `json:"author_name"`
	Body         string    `json:"body"`
	CreatedAt    Timestamp `json:"created_at"`
}

func (m Message) FromStaff() bool { return m.AuthorUserID == nil }

type Thread struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	OrderID  *string   `json:"order_id"`
	Subject  string    `json:"subject"`
	Messages []Message `json:"messages"`
	Closed   bool      `json:"closed"`
}

type Stats struct {
	TotalOrders       int            `json:"total_orders"`
	TotalRevenueCents int64          `json:"total_revenue_cents"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
	PendingOrders     int            `json:"pending_orders"`
	ValidatedOrders   int            `json:"validated_orders"`
	ShippedOrders     int            `json:"shipped_orders"`
	DeliveredOrders   int            `json:"delivered_orders"`
	TotalUsers        int            `json:"total_users"`
	TotalProducts     int            `json:"total_products"`
	LowStockProducts  []Product      `json:"low_stock_products"`
}

// Timestamp decodes the backend's epoch-seconds floats (RFC 3339 strings are accepted too).
type Timestamp struct{ time.Time }

func At(t time.Time) *Timestamp { return &Timestamp{Time: t} }

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err == nil {
		whole, frac := math.Modf(secs)
		t.Time = time.Unix(int64(whole), int64(math.Round(frac*1e6))*1e3).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(t.UnixMicro()) / 1e6)
}
