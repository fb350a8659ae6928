package storefront

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

// requireAdmin mirrors the route guard. The backend decides for real.
func (s *Storefront) requireAdmin() error {
	if u, ok := s.Session.User(); !ok || !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *Storefront) AdminOrders(ctx context.Context) ([]shop.Order, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	list, err := s.api.AdminOrders(ctx)
	return list, errors.Wrap(err, "admin list orders")
}

// Advance moves an order to the given status through the matching admin endpoint.
func (s *Storefront) Advance(ctx context.Context, id string, to shop.Status) (shop.Order, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Order{}, err
	}
	var (
		o   shop.Order
		err error
	)
	switch to {
	case shop.StatusValidated:
		o, err = s.api.ValidateOrder(ctx, id)
	case shop.StatusShipped:
		o, err = s.api.ShipOrder(ctx, id)
	case shop.StatusDelivered:
		o, err = s.api.DeliverOrder(ctx, id)
	case shop.StatusRefunded:
		o, err = s.api.RefundOrder(ctx, id, nil)
	default:
		return shop.Order{}, errors.Errorf("no admin action moves an order to %s", to.Label())
	}
	return o, errors.Wrapf(err, "%s order %s", to.Label(), id)
}

func (s *Storefront) AdminProducts(ctx context.Context) ([]shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	ps, err := s.api.AdminProducts(ctx)
	return ps, errors.Wrap(err, "admin list products")
}

func (s *Storefront) CreateProduct(ctx context.Context, f validate.ProductForm) (shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Product{}, err
	}
	if err := s.v.Check(f); err != nil {
		return shop.Product{}, err
	}
	p, err := s.api.CreateProduct(ctx, f.Draft())
	return p, errors.Wrap(err, "create product")
}

func (s *Storefront) UpdateProduct(ctx context.Context, id string, patch shop.ProductPatch) (shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Product{}, err
	}
	p, err := s.api.UpdateProduct(ctx, id, patch)
	return p, errors.Wrapf(err, "update product %s", id)
}

func (s *Storefront) UpdateStock(ctx context.Context, id string, f validate.StockForm) (shop.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Product{}, err
	}
	if err := s.v.Check(f); err != nil {
		return shop.Product{}, err
	}
	p, err := s.api.UpdateStock(ctx, id, f.Stock)
	return p, errors.Wrapf(err, "update stock %s", id)
}

// UploadImage sends a product picture and returns its URL for the product's image_url.
func (s *Storefront) UploadImage(ctx context.Context, img api.Image) (string, error) {
	if err := s.requireAdmin(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", validate.FieldErrors{"file": "must be an image"}
	}
	u, err := s.api.UploadImage(ctx, img)
	return u, errors.Wrap(err, "upload image")
}

func (s *Storefront) Stats(ctx context.Context) (shop.Stats, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Stats{}, err
	}
	st, err := s.api.Stats(ctx)
	return st, errors.Wrap(err, "stats")
}

func (s *Storefront) AdminThreads(ctx context.Context) ([]shop.Thread, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	ts, err := s.api.AdminThreads(ctx)
	return ts, errors.Wrap(err, "admin list threads")
}

func (s *Storefront) ReplyThread(ctx context.Context, id string, f validate.MessageForm) (shop.Thread, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Thread{}, err
	}
	if err := s.v.Check(f); err != nil {
		return shop.Thread{}, err
	}
	t, err := s.api.ReplyThread(ctx, id, f.Body)
	return t, errors.Wrapf(err, "reply thread %s", id)
}

func (s *Storefront) CloseThread(ctx context.Context, id string) (shop.Thread, error) {
	if err := s.requireAdmin(); err != nil {
		return shop.Thread{}, err
	}
	t, err := s.api.CloseThread(ctx, id)
	return t, errors.Wrapf(err, "close thread %s", id)
}
