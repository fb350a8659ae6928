package shop

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, unit int64, qty int) CartItem {
	return CartItem{ProductID: id, UnitPriceCents: unit, Quantity: qty, LineTotalCents: unit * int64(qty)}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		cart Cart
		want Summary
	}{
		{"empty cart has no shipping", EmptyCart(), Summary{}},
		{
			"two mugs",
			Cart{Items: []CartItem{line("p1", 1250, 2)}, TotalCents: 2500},
			Summary{ItemCount: 2, SubtotalCents: 2500, ShippingCents: 599, TotalCents: 3099},
		},
		{
			"count sums quantities",
			Cart{Items: []CartItem{line("p1", 100, 3), line("p2", 50, 1)}, TotalCents: 350},
			Summary{ItemCount: 4, SubtotalCents: 350, ShippingCents: 599, TotalCents: 949},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.cart, DefaultShippingCents))
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "30.99", FormatCents(3099))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.20", FormatCents(-120))
}

func TestCartConsistent(t *testing.T) {
	ok := Cart{Items: []CartItem{line("p1", 1250, 2), line("p2", 300, 1)}, TotalCents: 2800}
	assert.NoError(t, ok.Consistent())

	badTotal := ok.Clone()
	badTotal.TotalCents = 1
	assert.Error(t, badTotal.Consistent())

	dup := Cart{Items: []CartItem{line("p1", 100, 1), line("p1", 100, 1)}, TotalCents: 200}
	assert.Error(t, dup.Consistent())

	badLine := Cart{Items: []CartItem{{ProductID: "p1", UnitPriceCents: 100, Quantity: 2, LineTotalCents: 150}}, TotalCents: 150}
	assert.Error(t, badLine.Consistent())
}

func TestCloneDoesNotShareItems(t *testing.T) {
	c := Cart{Items: []CartItem{line("p1", 100, 1)}, TotalCents: 100}
	cp := c.Clone()
	cp.Items[0].Quantity = 9
	assert.Equal(t, 1, c.Items[0].Quantity)

	it, found := c.Find("p1")
	require.True(t, found)
	assert.Equal(t, int64(100), it.LineTotalCents)
	_, found = c.Find("nope")
	assert.False(t, found)
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusCreated, StatusPaid))
	assert.True(t, CanTransition(StatusShipped, StatusDelivered))
	assert.False(t, CanTransition(StatusDelivered, StatusShipped))
	assert.False(t, CanTransition(StatusCanceled, StatusPaid))
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.Equal(t, "shipped", StatusShipped.Label())
}

func TestCancelHint(t *testing.T) {
	assert.True(t, CancelHint(Order{Status: StatusCreated}))
	assert.False(t, CancelHint(Order{Status: StatusCreated, PaidAt: At(time.Now())}))
	assert.False(t, CancelHint(Order{Status: StatusValidated}))
}

func TestTimestampDecoding(t *testing.T) {
	var o struct {
		A *Timestamp `json:"a"`
		B *Timestamp `json:"b"`
		C *Timestamp `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1700000000.5,"b":"2023-11-14T22:13:20Z","c":null}`), &o))
	require.NotNil(t, o.A)
	assert.Equal(t, int64(1700000000), o.A.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(o.A.Nanosecond()))
	assert.Equal(t, int64(1700000000), o.B.Unix())
	assert.Nil(t, o.C)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "a@b.c", User{Email: "a@b.c"}.DisplayName())
}
