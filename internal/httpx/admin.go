package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

const maxImageBytes = 5 << 20

// actions maps the admin URL verbs onto target statuses.
var actions = map[string]shop.Status{
	"validate": shop.StatusValidated,
	"ship":     shop.StatusShipped,
	"deliver":  shop.StatusDelivered,
	"refund":   shop.StatusRefunded,
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := current(r).AdminOrders(r.Context())
	h.reply(w, r, http.StatusOK, map[string]any{"orders": list}, err)
}

func (h *Handler) adminAdvance(w http.ResponseWriter, r *http.Request) {
	to, ok := actions[chi.URLParam(r, "action")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action"})
		return
	}
	o, err := current(r).Advance(r.Context(), chi.URLParam(r, "id"), to)
	h.reply(w, r, http.StatusOK, o, err)
}

func (h *Handler) adminProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := current(r).AdminProducts(r.Context())
	h.reply(w, r, http.StatusOK, map[string]any{"products": ps}, err)
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var f validate.ProductForm
	if !decode(w, r, &f) {
		return
	}
	p, err := current(r).CreateProduct(r.Context(), f)
	h.reply(w, r, http.StatusCreated, p, err)
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch shop.ProductPatch
	if !decode(w, r, &patch) {
		return
	}
	p, err := current(r).UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	h.reply(w, r, http.StatusOK, p, err)
}

func (h *Handler) adminUpdateStock(w http.ResponseWriter, r *http.Request) {
	var f validate.StockForm
	if !decode(w, r, &f) {
		return
	}
	p, err := current(r).UpdateStock(r.Context(), chi.URLParam(r, "id"), f)
	h.reply(w, r, http.StatusOK, p, err)
}

func (h *Handler) adminUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "invalid input", "fields": map[string]string{"file": "is required"},
		})
		return
	}
	defer f.Close()
	u, err := current(r).UploadImage(r.Context(), api.Image{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        f,
	})
	h.reply(w, r, http.StatusOK, map[string]string{"image_url": u}, err)
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	st, err := current(r).Stats(r.Context())
	h.reply(w, r, http.StatusOK, st, err)
}

func (h *Handler) adminThreads(w http.ResponseWriter, r *http.Request) {
	list, err := current(r).AdminThreads(r.Context())
	h.reply(w, r, http.StatusOK, map[string]any{"threads": list}, err)
}

func (h *Handler) adminReply(w http.ResponseWriter, r *http.Request) {
	var f validate.MessageForm
	if !decode(w, r, &f) {
		return
	}
	t, err := current(r).ReplyThread(r.Context(), chi.URLParam(r, "id"), f)
	h.reply(w, r, http.StatusOK, t, err)
}

func (h *Handler) adminClose(w http.ResponseWriter, r *http.Request) {
	t, err := current(r).CloseThread(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, t, err)
}
