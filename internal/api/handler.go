package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"medadmin/m/domain"
	"medadmin/m/internal/catalog"
	"medadmin/m/internal/session"
)

// Authenticator is the identity provider the panel signs admins in with.
type Authenticator interface {
	session.Resolver
	SignInWithPassword(ctx context.Context, email, password string) (domain.Session, string, error)
	CreateAccount(ctx context.Context, email, password string) (domain.Session, string, error)
	SignOut(ctx context.Context, sessionID string) error
	Subscribe(sessionID string, fn func(session.State)) func()
}

type Options struct {
	AdminEmailSuffix string
	SessionTTL       time.Duration
	MaxUploadBytes   int64
	SecureCookies    bool
	// Heartbeat is the keep-alive interval of the session event stream.
	Heartbeat time.Duration
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	auth    Authenticator
	records *catalog.Service
	guard   *session.Guard
	opts    Options
}

// New constructs a Handler.
func New(auth Authenticator, records *catalog.Service, opts Options) *Handler {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 25 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	h := &Handler{auth: auth, records: records, opts: opts}
	h.guard = session.NewGuard(auth, opts.AdminEmailSuffix, http.HandlerFunc(h.loading))
	return h
}

// Router wires up the panel routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Group(func(pub chi.Router) {
		pub.Use(h.guard.PublicOnly)
		pub.Get(session.LoginPath, h.loginPage)
		pub.Post(session.LoginPath, h.login)
	})

	r.Route(session.HomePath, func(pr chi.Router) {
		pr.Use(h.guard.Protected)
		pr.Get("/", h.adminPage)
		pr.Route("/records", func(r chi.Router) {
			r.Get("/", h.listRecords)
			r.Post("/", h.submitRecord)
			r.Get("/{id}/delete", h.confirmDelete)
			r.Post("/{id}/delete", h.deleteRecord)
		})
		pr.Post("/logout", h.logout)
		pr.Get("/session/events", h.sessionEvents)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loading is shown while the session cannot be determined yet.
func (h *Handler) loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	h.render(w, http.StatusOK, "loading", pageData{Title: "Loading"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
