package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"medadmin/m/domain"
)

const (
	CookieName = "medadmin_session"
	LoginPath  = "/login"
	HomePath   = "/admin"
)

type ctxKey struct{}

// Resolver reports the session state behind a token.
type Resolver interface {
	Resolve(ctx context.Context, token string) State
}

// Guard routes visitors by session state before any handler runs.
type Guard struct {
	resolver    Resolver
	adminSuffix string
	pending     http.Handler
}

// NewGuard builds a Guard; pending renders the placeholder shown while the
// session cannot be determined yet.
func NewGuard(resolver Resolver, adminSuffix string, pending http.Handler) *Guard {
	return &Guard{resolver: resolver, adminSuffix: adminSuffix, pending: pending}
}

// IsAdmin applies the email-domain convention.
func (g *Guard) IsAdmin(s domain.Session) bool {
	return strings.HasSuffix(strings.ToLower(s.Email), strings.ToLower(g.adminSuffix))
}

func (g *Guard) resolve(r *http.Request) State {
	return g.resolver.Resolve(r.Context(), TokenFromRequest(r))
}

// Protected lets only admin sessions through and stores the session in the
// request context.
func (g *Guard) Protected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := g.resolve(r)
		switch state.Kind() {
		case KindPending:
			g.pending.ServeHTTP(w, r)
			return
		case KindAnonymous:
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		sess, _ := state.Session()
		if !g.IsAdmin(sess) {
			log.Info().Str("email", sess.Email).Msg("non-admin session redirected to login")
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// PublicOnly sends admin sessions to the record manager. Non-admin sessions
// stay on the login page, otherwise they would bounce between the two routes.
func (g *Guard) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := g.resolve(r)
		if state.Kind() == KindPending {
			g.pending.ServeHTTP(w, r)
			return
		}
		if sess, ok := state.Session(); ok && g.IsAdmin(sess) {
			http.Redirect(w, r, HomePath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(domain.Session)
	return s, ok
}
