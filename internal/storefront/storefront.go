// Package storefront binds the REST client, the session and the cart of one
// browser session together.
package storefront

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

var (
	// ErrEmptyCart is returned by Checkout before any call when the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrForbidden is returned by admin operations for users without the admin flag.
	ErrForbidden = errors.New("admin access required")
	// ErrAlreadyPaid is returned by Pay for an order that already has a payment.
	ErrAlreadyPaid = errors.New("order already paid")
)

// Publisher emits activity events. Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) {}

type Options struct {
	// SessionID identifies the browser session; it keys the stored token.
	SessionID     string
	Client        *api.Client
	Store         session.TokenStore
	ShippingCents int64
	Publisher     Publisher
	Logger        logrus.FieldLogger
	Validator     *validate.Validator
}

type Storefront struct {
	id       string
	api      *api.Client
	shipping int64
	pub      Publisher
	log      logrus.FieldLogger
	v        *validate.Validator

	Session *session.Manager
	Cart    *cart.Manager
}

func New(o Options) *Storefront {
	if o.Publisher == nil {
		o.Publisher = nopPublisher{}
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Validator == nil {
		o.Validator = validate.New()
	}
	if o.Store == nil {
		o.Store = session.NewMemoryStore()
	}
	log := o.Logger.WithField("session", o.SessionID)
	s := &Storefront{
		id:       o.SessionID,
		shipping: o.ShippingCents,
		pub:      o.Publisher,
		log:      log,
		v:        o.Validator,
	}
	s.api = o.Client.WithSession(api.TokenFunc(func() string { return s.Session.Token() }), s.expire)
	s.Session = session.New(s.api, o.Store, o.SessionID, session.WithLogger(log))
	s.Cart = cart.New(s.api, cart.WithLogger(log), cart.WithNotifier(s.cartChanged))
	s.Session.Subscribe(s.Cart.OnAuthChange)
	return s
}

func (s *Storefront) ID() string { return s.id }

// Bootstrap resolves a persisted sign-in; until it returns, State reports loading.
func (s *Storefront) Bootstrap(ctx context.Context) error {
	return s.Session.Restore(ctx)
}

func (s *Storefront) State() session.State { return s.Session.State() }

func (s *Storefront) SignIn(ctx context.Context, f validate.LoginForm) (shop.User, error) {
	if err := s.v.Check(f); err != nil {
		return shop.User{}, err
	}
	u, err := s.Session.SignIn(ctx, f.Email, f.Password)
	if err != nil {
		return shop.User{}, err
	}
	s.started(ctx, u)
	return u, nil
}

func (s *Storefront) Register(ctx context.Context, f validate.RegisterForm) (shop.User, error) {
	if err := s.v.Check(f); err != nil {
		return shop.User{}, err
	}
	u, err := s.Session.Register(ctx, f.Registration())
	if err != nil {
		return shop.User{}, err
	}
	s.started(ctx, u)
	return u, nil
}

func (s *Storefront) started(ctx context.Context, u shop.User) {
	s.log.WithField("user_id", u.ID).Info("signed in")
	s.pub.Publish(ctx, shop.EventSessionStarted, s.id, shop.SessionPayload{SessionID: s.id, UserID: u.ID})
}

func (s *Storefront) SignOut(ctx context.Context) {
	s.end(ctx, shop.ReasonSignedOut)
}

// expire is the forced sign-out run when the backend answers 401 to a session call.
func (s *Storefront) expire(ctx context.Context) {
	s.end(ctx, shop.ReasonExpired)
}

func (s *Storefront) end(ctx context.Context, reason string) {
	u, had := s.Session.SignOut(ctx)
	if !had {
		return
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "reason": reason}).Info("signed out")
	s.pub.Publish(ctx, shop.EventSessionEnded, s.id, shop.SessionPayload{SessionID: s.id, UserID: u.ID, Reason: reason})
}

func (s *Storefront) UpdateProfile(ctx context.Context, f validate.ProfileForm) (shop.User, error) {
	if err := s.v.Check(f); err != nil {
		return shop.User{}, err
	}
	u, err := s.Session.UpdateProfile(ctx, f.Update())
	if errors.Is(err, api.ErrUnauthorized) {
		// the profile call carries an explicit token, so the client hook did not fire
		s.expire(ctx)
	}
	return u, err
}

func (s *Storefront) cartChanged(ctx context.Context, c shop.Cart) {
	sum := shop.Summarize(c, s.shipping)
	s.pub.Publish(ctx, shop.EventCartChanged, s.id, shop.CartChangedPayload{
		SessionID:  s.id,
		ItemCount:  sum.ItemCount,
		TotalCents: c.TotalCents,
	})
}

// Summary derives display totals from the current cart.
func (s *Storefront) Summary() shop.Summary {
	return shop.Summarize(s.Cart.Cart(), s.shipping)
}

func (s *Storefront) Products(ctx context.Context) ([]shop.Product, error) {
	ps, err := s.api.Products(ctx)
	return ps, errors.Wrap(err, "list products")
}

func (s *Storefront) Product(ctx context.Context, id string) (shop.Product, error) {
	p, err := s.api.Product(ctx, id)
	return p, errors.Wrapf(err, "get product %s", id)
}
