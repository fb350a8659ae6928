package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type orderIDRequest struct {
	OrderID string `json:"order_id"`
}

type orderList struct {
	Orders []shop.Order `json:"orders"`
}

func (c *Client) Checkout(ctx context.Context, shippingAddress string) (shop.Order, error) {
	var o shop.Order
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/orders/checkout",
		in:      map[string]string{"shipping_address": shippingAddress},
		out:     &o,
		session: true,
	})
	return o, err
}

func (c *Client) Pay(ctx context.Context, p shop.PaymentRequest) (shop.Payment, error) {
	var out shop.Payment
	err := c.do(ctx, request{method: http.MethodPost, path: "/orders/pay", in: p, out: &out, session: true})
	return out, err
}

func (c *Client) Orders(ctx context.Context) ([]shop.Order, error) {
	var out orderList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders", out: &out, session: true}); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Order(ctx context.Context, id string) (shop.Order, error) {
	var o shop.Order
	err := c.do(ctx, request{method: http.MethodGet, path: "/orders/" + url.PathEscape(id), out: &o, session: true})
	return o, err
}

func (c *Client) CancelOrder(ctx context.Context, id string) (shop.Order, error) {
	var o shop.Order
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/orders/cancel",
		in:      orderIDRequest{OrderID: id},
		out:     &o,
		session: true,
	})
	return o, err
}
