package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func (c *Client) Products(ctx context.Context) ([]shop.Product, error) {
	var out struct {
		Products []shop.Product `json:"products"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/catalog/products", out: &out}); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) Product(ctx context.Context, id string) (shop.Product, error) {
	var p shop.Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/catalog/products/" + url.PathEscape(id), out: &p})
	return p, err
}
