package storefront

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

// testCard is what the simulated gateway charges; the typed number is only validated.
const testCard = "4242424242424242"

// Checkout turns the cart into an order. The backend empties the cart as part
// of it, so the local cart is reloaded afterwards.
func (s *Storefront) Checkout(ctx context.Context, f validate.CheckoutForm) (shop.Order, error) {
	if len(s.Cart.Cart().Items) == 0 {
		return shop.Order{}, ErrEmptyCart
	}
	if err := s.v.Check(f); err != nil {
		return shop.Order{}, err
	}
	o, err := s.api.Checkout(ctx, f.ShippingAddress)
	if err != nil {
		return shop.Order{}, errors.Wrap(err, "checkout")
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "total_cents": o.TotalCents}).Info("order placed")
	s.pub.Publish(ctx, shop.EventOrderPlaced, s.id, shop.OrderPlacedPayload{
		SessionID: s.id, OrderID: o.ID, TotalCents: o.TotalCents,
	})
	if _, err := s.Cart.Load(ctx); err != nil {
		s.log.WithError(err).Warn("reload cart after checkout")
	}
	return o, nil
}

func (s *Storefront) Pay(ctx context.Context, f validate.PaymentForm) (shop.Payment, error) {
	if err := s.v.Check(f); err != nil {
		return shop.Payment{}, err
	}
	o, err := s.api.Order(ctx, f.OrderID)
	if err != nil {
		return shop.Payment{}, errors.Wrapf(err, "get order %s", f.OrderID)
	}
	if o.PaidAt != nil {
		return shop.Payment{}, ErrAlreadyPaid
	}
	p, err := s.api.Pay(ctx, shop.PaymentRequest{
		OrderID:    f.OrderID,
		CardNumber: testCard,
		ExpMonth:   f.ExpMonth,
		ExpYear:    f.ExpYear,
		CVC:        f.CVV,
	})
	if err != nil {
		return shop.Payment{}, errors.Wrapf(err, "pay order %s", f.OrderID)
	}
	return p, nil
}

func (s *Storefront) Orders(ctx context.Context) ([]shop.Order, error) {
	list, err := s.api.Orders(ctx)
	return list, errors.Wrap(err, "list orders")
}

func (s *Storefront) Order(ctx context.Context, id string) (shop.Order, error) {
	o, err := s.api.Order(ctx, id)
	return o, errors.Wrapf(err, "get order %s", id)
}

// CancelOrder always asks the backend; shop.CancelHint only decides whether the
// button is shown.
func (s *Storefront) CancelOrder(ctx context.Context, id string) (shop.Order, error) {
	o, err := s.api.CancelOrder(ctx, id)
	return o, errors.Wrapf(err, "cancel order %s", id)
}

func (s *Storefront) Threads(ctx context.Context) ([]shop.Thread, error) {
	ts, err := s.api.Threads(ctx)
	return ts, errors.Wrap(err, "list threads")
}

func (s *Storefront) Thread(ctx context.Context, id string) (shop.Thread, error) {
	t, err := s.api.Thread(ctx, id)
	return t, errors.Wrapf(err, "get thread %s", id)
}

func (s *Storefront) CreateThread(ctx context.Context, f validate.ThreadForm) (shop.Thread, error) {
	if err := s.v.Check(f); err != nil {
		return shop.Thread{}, err
	}
	t, err := s.api.CreateThread(ctx, f.Subject, f.Message, f.OrderID)
	return t, errors.Wrap(err, "create thread")
}

func (s *Storefront) PostMessage(ctx context.Context, threadID string, f validate.MessageForm) (shop.Thread, error) {
	if err := s.v.Check(f); err != nil {
		return shop.Thread{}, err
	}
	t, err := s.api.PostMessage(ctx, threadID, f.Body)
	return t, errors.Wrapf(err, "post to thread %s", threadID)
}
