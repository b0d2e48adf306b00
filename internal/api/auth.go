package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"medadmin/m/internal/auth"
	"medadmin/m/internal/session"
)

const (
	modeLogin  = "login"
	modeSignup = "signup"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	mode := modeLogin
	if r.URL.Query().Get("mode") == modeSignup {
		mode = modeSignup
	}
	h.render(w, http.StatusOK, "login", pageData{
		Title:  "Login",
		Notice: takeNotice(w, r),
		Mode:   mode,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login", pageData{Title: "Login", Notice: "Invalid form submission", Mode: modeLogin})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	mode := modeLogin
	if r.PostFormValue("mode") == modeSignup {
		mode = modeSignup
	}

	signIn := h.auth.SignInWithPassword
	if mode == modeSignup {
		signIn = h.auth.CreateAccount
	}
	sess, token, err := signIn(r.Context(), email, password)
	if err != nil {
		log.Info().Err(err).Str("mode", mode).Str("email", email).Msg("sign in rejected")
		h.render(w, http.StatusUnauthorized, "login", pageData{
			Title:  "Login",
			Notice: auth.Message(err),
			Email:  email,
			Mode:   mode,
		})
		return
	}

	h.setSessionCookie(w, token)
	if mode == modeSignup {
		setNotice(w, "Admin account created")
	} else {
		setNotice(w, "Signed in")
	}
	log.Info().Str("session_id", sess.ID).Str("email", sess.Email).Msg("admin signed in")
	http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := h.auth.SignOut(r.Context(), sess.ID); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("sign out failed")
		setNotice(w, "Sign out failed, please try again")
		http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
		return
	}
	h.clearSessionCookie(w)
	setNotice(w, "Signed out")
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}

// sessionEvents streams the session's state to an open admin page until the
// page goes away. A "signed-out" event is sent once the session is gone.
func (h *Handler) sessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	rc := http.NewResponseController(w)

	changes := make(chan session.State, 1)
	unsubscribe := h.auth.Subscribe(sess.ID, func(s session.State) {
		select {
		case changes <- s:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(h.opts.Heartbeat)
	defer ticker.Stop()

	token := session.TokenFromRequest(r)
	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-changes:
			if s.Kind() == session.KindAnonymous {
				h.signedOut(w, rc)
				return
			}
		case <-ticker.C:
			if h.auth.Resolve(r.Context(), token).Kind() == session.KindAnonymous {
				h.signedOut(w, rc)
				return
			}
			fmt.Fprint(w, ": ping\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) signedOut(w http.ResponseWriter, rc *http.ResponseController) {
	fmt.Fprintf(w, "event: signed-out\ndata: %s\n\n", session.LoginPath)
	_ = rc.Flush()
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
