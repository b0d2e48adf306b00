package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"medadmin/m/domain"
	"medadmin/m/internal/session"
)

type Options struct {
	Secret           string
	TTL              time.Duration
	AdminEmailSuffix string
	MinPasswordLen   int
}

// Provider is the local identity provider: admin accounts in the users table,
// signed session tokens, and a registry of live sessions.
type Provider struct {
	db          *sqlx.DB
	registry    Registry
	hub         *Hub
	secret      []byte
	ttl         time.Duration
	adminSuffix string
	minPassword int
	now         func() time.Time
}

func NewProvider(db *sqlx.DB, registry Registry, opts Options) *Provider {
	return &Provider{
		db:          db,
		registry:    registry,
		hub:         NewHub(),
		secret:      []byte(opts.Secret),
		ttl:         opts.TTL,
		adminSuffix: strings.ToLower(opts.AdminEmailSuffix),
		minPassword: opts.MinPasswordLen,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) validateCredentials(email, password string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return &Error{Code: CodeInvalidEmail}
	}
	if !strings.HasSuffix(email, p.adminSuffix) {
		return &Error{Code: CodeNotAdmin, Detail: fmt.Sprintf("Only admin emails allowed (e.g. admin%s)", p.adminSuffix)}
	}
	if err := validation.Validate(password, validation.Required, validation.RuneLength(p.minPassword, 0)); err != nil {
		return &Error{Code: CodeWeakPassword, Detail: fmt.Sprintf("Password must be at least %d characters", p.minPassword)}
	}
	return nil
}

// CreateAccount registers a new admin and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (domain.Session, string, error) {
	email = normalizeEmail(email)
	if err := p.validateCredentials(email, password); err != nil {
		return domain.Session{}, "", err
	}

	var exists bool
	if err := p.db.GetContext(ctx, &exists, p.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`), email); err != nil {
		return domain.Session{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Session{}, "", &Error{Code: CodeEmailInUse}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("unable to secure password: %w", err)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hashed),
		CreatedAt: p.now().UTC().Format(time.RFC3339),
	}
	_, err = p.db.NamedExecContext(ctx, `INSERT INTO users (id, email, password, created_at) VALUES (:id, :email, :password, :created_at)`, user)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("email", email).Msg("admin account created")
	return p.startSession(ctx, user)
}

// SignInWithPassword checks the credentials and opens a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, string, error) {
	email = normalizeEmail(email)
	if err := p.validateCredentials(email, password); err != nil {
		return domain.Session{}, "", err
	}

	user, err := p.LookupUser(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return domain.Session{}, "", &Error{Code: CodeInvalidCredential}
	}
	if err != nil {
		return domain.Session{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return domain.Session{}, "", &Error{Code: CodeInvalidCredential}
	}

	return p.startSession(ctx, user)
}

// LookupUser returns the account registered under email.
func (p *Provider) LookupUser(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := p.db.GetContext(ctx, &user, p.db.Rebind(`SELECT id, email, password, created_at FROM users WHERE email = ?`), normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (p *Provider) startSession(ctx context.Context, user domain.User) (domain.Session, string, error) {
	sess := domain.Session{ID: uuid.NewString(), UserID: user.ID, Email: user.Email}
	token, err := p.generateToken(sess, p.now())
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("unable to generate token: %w", err)
	}
	if err := p.registry.Put(ctx, sess.ID, p.ttl); err != nil {
		return domain.Session{}, "", err
	}
	return sess, token, nil
}

// SignOut ends the session and tells its observers it is gone.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if err := p.registry.Revoke(ctx, sessionID); err != nil {
		return err
	}
	p.hub.Publish(sessionID, session.Anonymous())
	log.Info().Str("session_id", sessionID).Msg("session signed out")
	return nil
}

// Resolve reports the state behind a token. Registry failures leave the state
// Pending rather than guessing either way.
func (p *Provider) Resolve(ctx context.Context, token string) session.State {
	if token == "" {
		return session.Anonymous()
	}
	sess, err := p.parseToken(token)
	if err != nil {
		return session.Anonymous()
	}
	ok, err := p.registry.Exists(ctx, sess.ID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("session registry unavailable")
		return session.Pending()
	}
	if !ok {
		return session.Anonymous()
	}
	return session.Authenticated(sess)
}

// Subscribe observes state changes of one session until the returned
// function is called.
func (p *Provider) Subscribe(sessionID string, fn func(session.State)) func() {
	return p.hub.Subscribe(sessionID, fn)
}

// TTL is the lifetime of issued sessions.
func (p *Provider) TTL() time.Duration {
	return p.ttl
}
