package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ariefcatur/go-storefront/internal/storefront"
)

const (
	cookieName = "storefront"
	sidKey     = "sid"
)

type ctxKey int

const storefrontKey ctxKey = iota

// NewCookieStore returns the signed cookie store that carries the browser session id.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// browserSession resolves (or issues) the browser session id and attaches its storefront.
func (h *Handler) browserSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a cookie that fails verification yields a fresh session
		sess, _ := h.Cookies.Get(r, cookieName)
		sid, _ := sess.Values[sidKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sidKey] = sid
			if err := sess.Save(r, w); err != nil {
				h.Log.WithError(err).Error("save session cookie")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
				return
			}
		}
		sf := h.Registry.Get(sid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storefrontKey, sf)))
	})
}

func current(r *http.Request) *storefront.Storefront {
	sf, _ := r.Context().Value(storefrontKey).(*storefront.Storefront)
	return sf
}
