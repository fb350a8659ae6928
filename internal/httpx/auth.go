package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

type sessionResponse struct {
	session.State
	Summary summaryView `json:"summary"`
}

func (h *Handler) sessionState(w http.ResponseWriter, r *http.Request) {
	sf := current(r)
	writeJSON(w, http.StatusOK, sessionResponse{State: sf.State(), Summary: viewSummary(sf.Summary())})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var f validate.LoginForm
	if !decode(w, r, &f) {
		return
	}
	u, err := current(r).SignIn(r.Context(), f)
	h.reply(w, r, http.StatusOK, u, err)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var f validate.RegisterForm
	if !decode(w, r, &f) {
		return
	}
	u, err := current(r).Register(r.Context(), f)
	h.reply(w, r, http.StatusCreated, u, err)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	current(r).SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, _ := current(r).Session.User()
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var f validate.ProfileForm
	if !decode(w, r, &f) {
		return
	}
	u, err := current(r).UpdateProfile(r.Context(), f)
	h.reply(w, r, http.StatusOK, u, err)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := current(r).Products(r.Context())
	h.reply(w, r, http.StatusOK, map[string]any{"products": ps}, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := current(r).Product(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, p, err)
}
