package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/backendtest"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

func sessionClient(b *backendtest.Backend, token *string, onUnauthorized func(context.Context)) *api.Client {
	return api.New(b.URL(), nil).WithSession(api.TokenFunc(func() string { return *token }), onUnauthorized)
}

func TestLoginAndMe(t *testing.T) {
	b := backendtest.New(t)
	alice := b.AddUser("alice@example.com", "secret1", false)
	c := api.New(b.URL(), nil)
	ctx := context.Background()

	token, err := c.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	u, err := c.Me(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice, u)
}

func TestLoginRejectedCarriesDetail(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("alice@example.com", "secret1", false)
	c := api.New(b.URL(), nil)

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.Equal(t, "Invalid email or password", api.Message(err))
}

func TestExplicitTokenCallDoesNotTriggerSignOut(t *testing.T) {
	b := backendtest.New(t)
	fired := 0
	token := ""
	c := sessionClient(b, &token, func(context.Context) { fired++ })

	_, err := c.Me(context.Background(), "not-a-token")
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Zero(t, fired)
}

func TestSessionCallUnauthorizedFiresHook(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("alice@example.com", "secret1", false)
	token := "tok-alice"
	b.Grant(token, "alice@example.com")
	fired := 0
	c := sessionClient(b, &token, func(context.Context) { fired++ })
	ctx := context.Background()

	_, err := c.GetCart(ctx)
	require.NoError(t, err)
	assert.Zero(t, fired)

	b.Revoke(token)
	_, err = c.GetCart(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, fired)
}

func TestCartRoundTrip(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("alice@example.com", "secret1", false)
	p1 := b.AddProduct("Mug", 1250, 10)
	token := "tok-alice"
	b.Grant(token, "alice@example.com")
	c := sessionClient(b, &token, nil)
	ctx := context.Background()

	cart, err := c.GetCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)

	cart, err = c.AddToCart(ctx, p1.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2500), cart.TotalCents)
	require.NoError(t, cart.Consistent())

	cart, err = c.AddToCart(ctx, p1.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = c.RemoveFromCart(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = c.AddToCart(ctx, p1.ID, 1)
	require.NoError(t, err)
	require.NoError(t, c.ClearCart(ctx))
	assert.Empty(t, b.CartOf("alice@example.com").Items)
	assert.Equal(t, 1, b.Calls(http.MethodDelete, "/cart/clear"))
}

func TestOrdersLifecycle(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("alice@example.com", "secret1", false)
	b.AddUser("admin@example.com", "secret1", true)
	p := b.AddProduct("Lamp", 4000, 3)
	token := "tok-alice"
	b.Grant(token, "alice@example.com")
	b.Grant("tok-admin", "admin@example.com")
	c := sessionClient(b, &token, nil)
	ctx := context.Background()

	_, err := c.AddToCart(ctx, p.ID, 1)
	require.NoError(t, err)
	o, err := c.Checkout(ctx, "12 Rue de Paris")
	require.NoError(t, err)
	assert.Equal(t, shop.StatusCreated, o.Status)
	assert.False(t, o.CreatedAt.IsZero())

	pay, err := c.Pay(ctx, shop.PaymentRequest{OrderID: o.ID, CardNumber: backendtest.TestCard, ExpMonth: 12, ExpYear: 2030, CVC: "123"})
	require.NoError(t, err)
	assert.True(t, pay.Succeeded)
	assert.Equal(t, o.TotalCents, pay.AmountCents)

	_, err = c.CancelOrder(ctx, o.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	admin := "tok-admin"
	ac := sessionClient(b, &admin, nil)
	shipped, err := ac.ShipOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.StatusShipped, shipped.Status)

	_, err = c.ShipOrder(ctx, o.ID)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	orders, err := c.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, shop.StatusShipped, orders[0].Status)
	assert.NotNil(t, orders[0].PaidAt)
}

func TestSupportThread(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("alice@example.com", "secret1", false)
	b.AddUser("admin@example.com", "secret1", true)
	token := "tok-alice"
	b.Grant(token, "alice@example.com")
	b.Grant("tok-admin", "admin@example.com")
	c := sessionClient(b, &token, nil)
	ctx := context.Background()

	th, err := c.CreateThread(ctx, "Late parcel", "Where is it?", nil)
	require.NoError(t, err)
	require.Len(t, th.Messages, 1)
	assert.False(t, th.Messages[0].FromStaff())

	admin := "tok-admin"
	th, err = sessionClient(b, &admin, nil).ReplyThread(ctx, th.ID, "On its way")
	require.NoError(t, err)
	require.Len(t, th.Messages, 2)
	assert.True(t, th.Messages[1].FromStaff())

	th, err = c.PostMessage(ctx, th.ID, "Thanks")
	require.NoError(t, err)
	assert.Len(t, th.Messages, 3)

	threads, err := c.Threads(ctx)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
}

func TestErrorBodies(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Out of stock"}`, "Out of stock"},
		{"detail list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email"}]}`, "value is not a valid email"},
		{"message", `{"message":"nope"}`, "nope"},
		{"error", `{"error":"bad"}`, "bad"},
		{"empty", ``, "backend 400: Bad Request"},
		{"not json", `<html>`, "backend 400: Bad Request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := api.New(srv.URL, nil).Products(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.want, api.Message(err))
			assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
		})
	}
}

func TestMessageFallbacks(t *testing.T) {
	assert.Equal(t, "", api.Message(nil))
	assert.Equal(t, "dial tcp: refused", api.Message(errors.New("dial tcp: refused")))
	assert.Equal(t, "Something went wrong, please try again", api.Message(errors.New("")))
	assert.Zero(t, api.StatusOf(errors.New("x")))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := api.New(url, nil).Products(context.Background())
	require.Error(t, err)
	assert.Zero(t, api.StatusOf(err))
	assert.Contains(t, err.Error(), "GET /catalog/products")
}

func TestUploadImage(t *testing.T) {
	b := backendtest.New(t)
	b.AddUser("admin@example.com", "secret1", true)
	ctx := context.Background()
	token, err := api.New(b.URL(), nil).Login(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	c := sessionClient(b, &token, nil)

	u, err := c.UploadImage(ctx, api.Image{Filename: "mug.png", ContentType: "image/png", Data: strings.NewReader("\x89PNG")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "/api/uploads/"))
	assert.True(t, strings.HasSuffix(u, ".png"))

	_, err = c.UploadImage(ctx, api.Image{Filename: "notes.txt", ContentType: "text/plain", Data: strings.NewReader("hi")})
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	assert.Equal(t, "File must be an image", api.Message(err))
}
