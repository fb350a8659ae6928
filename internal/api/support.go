package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type createThreadRequest struct {
	Subject        string  `json:"subject"`
	InitialMessage string  `json:"initial_message"`
	OrderID        *string `json:"order_id"`
}

type bodyRequest struct {
	Body string `json:"body"`
}

type threadList struct {
	Threads []shop.Thread `json:"threads"`
}

func (c *Client) CreateThread(ctx context.Context, subject, message string, orderID *string) (shop.Thread, error) {
	var t shop.Thread
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/support/threads",
		in:      createThreadRequest{Subject: subject, InitialMessage: message, OrderID: orderID},
		out:     &t,
		session: true,
	})
	return t, err
}

// PostMessage appends body to a thread; the backend answers with the whole thread.
func (c *Client) PostMessage(ctx context.Context, threadID, body string) (shop.Thread, error) {
	var t shop.Thread
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/support/threads/" + url.PathEscape(threadID) + "/messages",
		in:      bodyRequest{Body: body},
		out:     &t,
		session: true,
	})
	return t, err
}

func (c *Client) Threads(ctx context.Context) ([]shop.Thread, error) {
	var out threadList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/support/threads", out: &out, session: true}); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *Client) Thread(ctx context.Context, id string) (shop.Thread, error) {
	var t shop.Thread
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/support/threads/" + url.PathEscape(id),
		out:     &t,
		session: true,
	})
	return t, err
}
