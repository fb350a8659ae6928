package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (c *Client) GetCart(ctx context.Context) (shop.Cart, error) {
	var out shop.Cart
	err := c.do(ctx, request{method: http.MethodGet, path: "/cart", out: &out, session: true})
	return normalize(out), err
}

// AddToCart adds quantity (which may be negative) to the product's line and
// returns the backend's cart.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (shop.Cart, error) {
	var out shop.Cart
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/cart/add",
		in:      addToCartRequest{ProductID: productID, Quantity: quantity},
		out:     &out,
		session: true,
	})
	return normalize(out), err
}

func (c *Client) RemoveFromCart(ctx context.Context, productID string) (shop.Cart, error) {
	var out shop.Cart
	err := c.do(ctx, request{
		method:  http.MethodDelete,
		path:    "/cart/remove/" + url.PathEscape(productID),
		out:     &out,
		session: true,
	})
	return normalize(out), err
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/cart/clear", session: true})
}

func normalize(c shop.Cart) shop.Cart {
	if c.Items == nil {
		c.Items = []shop.CartItem{}
	}
	return c
}
