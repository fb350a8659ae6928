package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

// orderView adds the hints the order pages use: whether to offer cancel, and
// whether the order can still move at all.
type orderView struct {
	shop.Order
	StatusLabel string `json:"status_label"`
	Cancellable bool   `json:"cancellable"`
	Final       bool   `json:"final"`
}

func viewOf(o shop.Order) orderView {
	return orderView{
		Order:       o,
		StatusLabel: o.Status.Label(),
		Cancellable: shop.CancelHint(o),
		Final:       o.Status.Terminal(),
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var f validate.CheckoutForm
	if !decode(w, r, &f) {
		return
	}
	o, err := current(r).Checkout(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(o))
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var f validate.PaymentForm
	if !decode(w, r, &f) {
		return
	}
	p, err := current(r).Pay(r.Context(), f)
	h.reply(w, r, http.StatusOK, p, err)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := current(r).Orders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		out = append(out, viewOf(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := current(r).Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := current(r).CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(o))
}

func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request) {
	list, err := current(r).Threads(r.Context())
	h.reply(w, r, http.StatusOK, map[string]any{"threads": list}, err)
}

func (h *Handler) createThread(w http.ResponseWriter, r *http.Request) {
	var f validate.ThreadForm
	if !decode(w, r, &f) {
		return
	}
	t, err := current(r).CreateThread(r.Context(), f)
	h.reply(w, r, http.StatusCreated, t, err)
}

func (h *Handler) getThread(w http.ResponseWriter, r *http.Request) {
	t, err := current(r).Thread(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, t, err)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var f validate.MessageForm
	if !decode(w, r, &f) {
		return
	}
	t, err := current(r).PostMessage(r.Context(), chi.URLParam(r, "id"), f)
	h.reply(w, r, http.StatusOK, t, err)
}
