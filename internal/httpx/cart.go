package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Cart    shop.Cart   `json:"cart"`
	Summary summaryView `json:"summary"`
	Loading bool        `json:"loading"`
}

// summaryView carries the totals in cents and formatted for display.
type summaryView struct {
	shop.Summary
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

func viewSummary(s shop.Summary) summaryView {
	return summaryView{
		Summary:  s,
		Subtotal: shop.FormatCents(s.SubtotalCents),
		Shipping: shop.FormatCents(s.ShippingCents),
		Total:    shop.FormatCents(s.TotalCents),
	}
}

func (h *Handler) cartReply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sf := current(r)
	writeJSON(w, http.StatusOK, cartResponse{Cart: sf.Cart.Cart(), Summary: viewSummary(sf.Summary()), Loading: sf.Cart.Loading()})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.cartReply(w, r, nil)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewSummary(current(r).Summary()))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	req := addItemReq{Quantity: 1}
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "invalid input", "fields": map[string]string{"product_id": "is required"},
		})
		return
	}
	_, err := current(r).Cart.Add(r.Context(), req.ProductID, req.Quantity)
	h.cartReply(w, r, err)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if !decode(w, r, &req) {
		return
	}
	_, err := current(r).Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	h.cartReply(w, r, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	_, err := current(r).Cart.Remove(r.Context(), chi.URLParam(r, "id"))
	h.cartReply(w, r, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	_, err := current(r).Cart.Clear(r.Context())
	h.cartReply(w, r, err)
}
