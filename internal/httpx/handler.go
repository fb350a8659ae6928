package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/guard"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/ariefcatur/go-storefront/internal/storefront"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

// Handler is the browser-facing JSON API.
type Handler struct {
	Registry *Registry
	Cookies  sessions.Store
	Log      logrus.FieldLogger
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.browserSession)

		r.Get("/session", h.sessionState)
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)
		r.Post("/auth/logout", h.logout)
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.guarded(false))
			r.Get("/auth/profile", h.profile)
			r.Put("/auth/profile", h.updateProfile)

			r.Get("/cart", h.getCart)
			r.Delete("/cart", h.clearCart)
			r.Get("/cart/summary", h.summary)
			r.Post("/cart/items", h.addItem)
			r.Put("/cart/items/{id}", h.updateItem)
			r.Delete("/cart/items/{id}", h.removeItem)

			r.Post("/checkout", h.checkout)
			r.Post("/payments", h.pay)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.Post("/orders/{id}/cancel", h.cancelOrder)

			r.Get("/support/threads", h.listThreads)
			r.Post("/support/threads", h.createThread)
			r.Get("/support/threads/{id}", h.getThread)
			r.Post("/support/threads/{id}/messages", h.postMessage)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.guarded(true))
			r.Get("/orders", h.adminOrders)
			r.Post("/orders/{id}/{action}", h.adminAdvance)
			r.Get("/products", h.adminProducts)
			r.Post("/products", h.adminCreateProduct)
			r.Put("/products/{id}", h.adminUpdateProduct)
			r.Put("/products/{id}/stock", h.adminUpdateStock)
			r.Post("/upload-image", h.adminUploadImage)
			r.Get("/stats", h.adminStats)
			r.Get("/support/threads", h.adminThreads)
			r.Post("/support/threads/{id}/reply", h.adminReply)
			r.Post("/support/threads/{id}/close", h.adminClose)
		})
	})
}

// guarded applies the route guard: a neutral loading answer while the session
// restores, then redirects for signed-out users and non-admins.
func (h *Handler) guarded(requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Decide(current(r).State(), requireAdmin)
			switch d {
			case guard.Render:
				next.ServeHTTP(w, r)
			case guard.Loading:
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"state": "loading"})
			case guard.RedirectLogin:
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in required", "redirect": d.Target()})
			default:
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required", "redirect": d.Target()})
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP answers.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe validate.FieldErrors
	var authErr *session.AuthError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "invalid input", "fields": fe})
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "invalid input", "fields": map[string]string{"quantity": "must be at least 1"},
		})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": authErr.Detail})
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, session.ErrSignedOut):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired", "redirect": guard.LoginPath})
	case errors.Is(err, storefront.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error(), "redirect": guard.HomePath})
	case errors.Is(err, storefront.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "redirect": "/cart"})
	case errors.Is(err, storefront.ErrAlreadyPaid):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		if status := api.StatusOf(err); status >= 400 && status < 500 {
			writeJSON(w, status, map[string]string{"error": api.Message(err)})
			return
		}
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": api.Message(err)})
	}
}

// reply writes v, or the error when err is set.
func (h *Handler) reply(w http.ResponseWriter, r *http.Request, code int, v any, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, code, v)
}
