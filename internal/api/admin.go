package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Admin endpoints need an admin-flagged token; the backend answers 403 otherwise.

func (c *Client) AdminOrders(ctx context.Context) ([]shop.Order, error) {
	var out orderList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/orders", out: &out, session: true}); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) ValidateOrder(ctx context.Context, id string) (shop.Order, error) {
	return c.orderAction(ctx, "/admin/orders/validate", id)
}

func (c *Client) ShipOrder(ctx context.Context, id string) (shop.Order, error) {
	return c.orderAction(ctx, "/admin/orders/ship", id)
}

func (c *Client) DeliverOrder(ctx context.Context, id string) (shop.Order, error) {
	return c.orderAction(ctx, "/admin/orders/deliver", id)
}

// RefundOrder refunds amountCents, or the full amount when nil.
func (c *Client) RefundOrder(ctx context.Context, id string, amountCents *int64) (shop.Order, error) {
	var o shop.Order
	in := struct {
		OrderID     string `json:"order_id"`
		AmountCents *int64 `json:"amount_cents,omitempty"`
	}{OrderID: id, AmountCents: amountCents}
	err := c.do(ctx, request{method: http.MethodPost, path: "/admin/orders/refund", in: in, out: &o, session: true})
	return o, err
}

func (c *Client) orderAction(ctx context.Context, path, id string) (shop.Order, error) {
	var o shop.Order
	err := c.do(ctx, request{method: http.MethodPost, path: path, in: orderIDRequest{OrderID: id}, out: &o, session: true})
	return o, err
}

func (c *Client) AdminProducts(ctx context.Context) ([]shop.Product, error) {
	var out []shop.Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/products", out: &out, session: true})
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, d shop.ProductDraft) (shop.Product, error) {
	var p shop.Product
	err := c.do(ctx, request{method: http.MethodPost, path: "/admin/products", in: d, out: &p, session: true})
	return p, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, patch shop.ProductPatch) (shop.Product, error) {
	var p shop.Product
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    "/admin/products/" + url.PathEscape(id),
		in:      patch,
		out:     &p,
		session: true,
	})
	return p, err
}

func (c *Client) UpdateStock(ctx context.Context, id string, stock int) (shop.Product, error) {
	var p shop.Product
	err := c.do(ctx, request{
		method:  http.MethodPut,
		path:    "/admin/products/" + url.PathEscape(id) + "/stock",
		in:      map[string]int{"stock": stock},
		out:     &p,
		session: true,
	})
	return p, err
}

func (c *Client) Stats(ctx context.Context) (shop.Stats, error) {
	var s shop.Stats
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/stats", out: &s, session: true})
	return s, err
}

func (c *Client) AdminThreads(ctx context.Context) ([]shop.Thread, error) {
	var out threadList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/support/threads", out: &out, session: true}); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *Client) ReplyThread(ctx context.Context, id, body string) (shop.Thread, error) {
	var t shop.Thread
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/admin/support/threads/" + url.PathEscape(id) + "/reply",
		in:      bodyRequest{Body: body},
		out:     &t,
		session: true,
	})
	return t, err
}

func (c *Client) CloseThread(ctx context.Context, id string) (shop.Thread, error) {
	var t shop.Thread
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/admin/support/threads/" + url.PathEscape(id) + "/close",
		out:     &t,
		session: true,
	})
	return t, err
}
