// Package guard decides what a route shows for a given session state.
package guard

import "github.com/ariefcatur/go-storefront/internal/session"

type Decision int

const (
	Render Decision = iota
	// Loading renders a neutral placeholder while the session is still resolving.
	Loading
	RedirectLogin
	RedirectHome
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Target is the redirect path for d, or "" when d does not redirect.
func (d Decision) Target() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	default:
		return ""
	}
}

// Decide never redirects while the session is loading. The admin check is a
// convenience for the UI; the backend still refuses non-admin tokens.
func Decide(st session.State, requireAdmin bool) Decision {
	switch {
	case st.Loading:
		return Loading
	case !st.Authenticated:
		return RedirectLogin
	case requireAdmin && (st.User == nil || !st.User.IsAdmin):
		return RedirectHome
	default:
		return Render
	}
}
