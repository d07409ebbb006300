package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aluiziolira/smartmarket/api"
	"github.com/aluiziolira/smartmarket/config"
	"github.com/aluiziolira/smartmarket/models"
	"github.com/aluiziolira/smartmarket/parser"
)

// DefaultLoginMinPassword is the shortest password a login form will submit.
const DefaultLoginMinPassword = 6

// State is the coarse status of the session.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateLockedOut
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// PersistMode records which store holds the current token.
type PersistMode string

const (
	PersistNone      PersistMode = ""
	PersistDurable   PersistMode = "durable"
	PersistEphemeral PersistMode = "ephemeral"
)

// Mode selects which form the session is presenting.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// Session is a point-in-time copy of the manager's state.
type Session struct {
	Token          string
	PersistMode    PersistMode
	FailedAttempts int
	LockUntil      *time.Time
}

// Form holds the credentials currently typed into the login/register form.
type Form struct {
	Email    string
	Password string
	Confirm  string
}

// Authenticator is the remote side of login and registration.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	Register(ctx context.Context, creds models.Credentials) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPolicy sets the registration password policy.
func WithPolicy(p PasswordPolicy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithLockout sets the failure threshold and lockout window.
func WithLockout(threshold int, window time.Duration) Option {
	return func(m *Manager) {
		m.lockout = LockoutPolicy{Threshold: threshold, Window: window}
	}
}

// WithMinLoginPassword sets the shortest password a login will submit.
func WithMinLoginPassword(n int) Option {
	return func(m *Manager) {
		m.minLoginPassword = n
	}
}

// WithMetrics records login outcomes and lockouts.
func WithMetrics(metrics *api.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// OptionsFromConfig translates cfg into manager options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithPolicy(PolicyFromConfig(cfg)),
		WithLockout(cfg.LockoutThreshold, cfg.LockoutWindow),
		WithMinLoginPassword(cfg.LoginMinPassword),
	}
}

// Manager owns the session and the form that feeds it. Safe for concurrent use.
type Manager struct {
	client    Authenticator
	durable   TokenStore
	ephemeral TokenStore

	policy           PasswordPolicy
	lockout          LockoutPolicy
	minLoginPassword int
	now              func() time.Time
	metrics          *api.Metrics

	mu       sync.Mutex
	session  Session
	form     Form
	mode     Mode
	inFlight bool
}

// NewManager returns an anonymous manager. Call Hydrate to pick up a stored token.
func NewManager(client Authenticator, durable, ephemeral TokenStore, opts ...Option) *Manager {
	m := &Manager{
		client:           client,
		durable:          durable,
		ephemeral:        ephemeral,
		policy:           DefaultPasswordPolicy(),
		lockout:          DefaultLockoutPolicy(),
		minLoginPassword: DefaultLoginMinPassword,
		now:              time.Now,
		mode:             ModeLogin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the registration password policy.
func (m *Manager) Policy() PasswordPolicy {
	return m.policy
}

// Hydrate restores a token saved by an earlier login. The durable store wins
// over the ephemeral one; store errors are logged and treated as empty.
func (m *Manager) Hydrate() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, candidate := range []struct {
		store TokenStore
		mode  PersistMode
	}{
		{m.durable, PersistDurable},
		{m.ephemeral, PersistEphemeral},
	} {
		if candidate.store == nil {
			continue
		}
		token, err := candidate.store.Load()
		if err != nil {
			slog.Warn("token store unreadable", "store", string(candidate.mode), "err", err)
			continue
		}
		if token != "" {
			m.session.Token = token
			m.session.PersistMode = candidate.mode
			slog.Debug("session restored", "store", string(candidate.mode))
			break
		}
	}
	return m.stateLocked(m.now())
}

// Login validates the credentials locally, then exchanges them for a token.
// While locked out it fails immediately without contacting the server.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) error {
	m.mu.Lock()
	now := m.now()
	if m.inFlight {
		m.mu.Unlock()
		return ErrInFlight
	}
	if m.lockout.IsLockedOut(m.session.LockUntil, now) {
		remaining := m.lockout.Remaining(m.session.LockUntil, now)
		m.mu.Unlock()
		m.metrics.IncLogin("locked")
		return &RateLimitError{Message: m.lockout.Message(), Local: true, Remaining: remaining}
	}

	email = parser.NormalizeEmail(email)
	password = strings.TrimSpace(password)
	m.form.Email = email

	var precondition *PreconditionError
	switch {
	case !parser.IsValidEmail(email):
		precondition = &PreconditionError{Field: "email", Message: "invalid email"}
	case utf8.RuneCountInString(password) < m.minLoginPassword:
		precondition = &PreconditionError{Field: "password", Message: "password too short"}
	}
	if precondition != nil {
		m.recordFailureLocked(now)
		m.mu.Unlock()
		m.metrics.IncLogin("precondition")
		return precondition
	}

	m.inFlight = true
	m.mu.Unlock()

	tok, err := m.client.Login(ctx, models.Credentials{Username: email, Password: password})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		if api.StatusCode(err) != 0 {
			m.recordFailureLocked(m.now())
			m.form.Password, m.form.Confirm = "", ""
		}
		loginErr := loginError(err)
		m.metrics.IncLogin(outcomeLabel(loginErr))
		slog.Info("login failed", "email", email, "failed_attempts", m.session.FailedAttempts, "err", err)
		return loginErr
	}

	persist := PersistEphemeral
	target, other := m.ephemeral, m.durable
	if remember {
		persist = PersistDurable
		target, other = m.durable, m.ephemeral
	}
	if target != nil {
		if err := target.Save(tok.AccessToken); err != nil {
			slog.Warn("token not saved", "store", string(persist), "err", err)
		}
	}
	if other != nil {
		if err := other.Clear(); err != nil {
			slog.Warn("stale token not cleared", "err", err)
		}
	}

	attempts, lockUntil := ResetOnSuccess()
	m.session = Session{
		Token:          tok.AccessToken,
		PersistMode:    persist,
		FailedAttempts: attempts,
		LockUntil:      lockUntil,
	}
	m.form.Password, m.form.Confirm = "", ""
	m.metrics.IncLogin("success")
	slog.Info("logged in", "email", email, "persist", string(persist))
	return nil
}

// Register creates an account. On success the form flips back to login mode;
// it never authenticates.
func (m *Manager) Register(ctx context.Context, email, password, confirm string) error {
	email = parser.NormalizeEmail(email)
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)

	if !parser.IsValidEmail(email) {
		return &PreconditionError{Field: "email", Message: "invalid email"}
	}
	if issues := m.policy.Issues(password); len(issues) > 0 {
		return &PreconditionError{Field: "password", Message: "password needs " + strings.Join(issues, ", ")}
	}
	if password != confirm {
		return &PreconditionError{Field: "confirm", Message: "passwords do not match"}
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrInFlight
	}
	m.inFlight = true
	m.form.Email = email
	m.mu.Unlock()

	err := m.client.Register(ctx, models.Credentials{Username: email, Password: password})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		regErr := registerError(err)
		var rejected *RejectedError
		if errors.As(regErr, &rejected) {
			m.form.Password, m.form.Confirm = "", ""
		}
		slog.Info("registration failed", "email", email, "err", err)
		return regErr
	}

	m.form.Password, m.form.Confirm = "", ""
	m.mode = ModeLogin
	slog.Info("registered", "email", email)
	return nil
}

// Logout drops the token from memory and from both stores.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, store := range []TokenStore{m.durable, m.ephemeral} {
		if store == nil {
			continue
		}
		if err := store.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	m.session = Session{}
	m.form = Form{}
	m.mode = ModeLogin
	slog.Info("logged out")
	return errors.Join(errs...)
}

// Token returns the bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

// State reports the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked(m.now())
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	if s.LockUntil != nil {
		until := *s.LockUntil
		s.LockUntil = &until
	}
	return s
}

// Form returns the current form contents.
func (m *Manager) Form() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

// SetForm replaces the form contents.
func (m *Manager) SetForm(f Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = f
}

// Mode returns which form is active.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode switches between the login and register forms.
func (m *Manager) SetMode(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

func (m *Manager) stateLocked(now time.Time) State {
	switch {
	case m.inFlight:
		return StateAuthenticating
	case m.session.Token != "":
		return StateAuthenticated
	case m.lockout.IsLockedOut(m.session.LockUntil, now):
		return StateLockedOut
	default:
		return StateAnonymous
	}
}

// recordFailureLocked counts a rejected login and starts the lockout once the
// threshold is reached. The counter restarts with the lockout.
func (m *Manager) recordFailureLocked(now time.Time) {
	m.session.FailedAttempts++
	lockUntil := m.lockout.ComputeLockUntil(m.session.FailedAttempts, now)
	if lockUntil == nil {
		return
	}
	m.session.LockUntil = lockUntil
	m.session.FailedAttempts = 0
	m.metrics.IncLockout()
	slog.Warn("login locked out", "until", lockUntil.Format(time.RFC3339), "window", m.lockout.Window)
}

func loginError(err error) error {
	msg := api.ServerMessage(err)
	switch status := api.StatusCode(err); {
	case status == http.StatusUnauthorized:
		return &RejectedError{Status: status, Message: withServerMessage("invalid credentials", msg)}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Message: withServerMessage("rate limited by server", msg)}
	case status != 0:
		return &FailureError{Message: withServerMessage("login failed", msg), Err: err}
	default:
		return &FailureError{Message: "login failed: " + err.Error(), Err: err}
	}
}

func registerError(err error) error {
	switch status := api.StatusCode(err); {
	case status == http.StatusConflict:
		return &RejectedError{Status: status, Message: "already registered"}
	case status == http.StatusUnprocessableEntity:
		return &RejectedError{Status: status, Message: "invalid data"}
	case status != 0:
		return &FailureError{Message: withServerMessage("registration failed", api.ServerMessage(err)), Err: err}
	default:
		return &FailureError{Message: "registration failed: " + err.Error(), Err: err}
	}
}

func outcomeLabel(err error) string {
	var rejected *RejectedError
	var limited *RateLimitError
	switch {
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &limited):
		return "rate_limited"
	default:
		return "error"
	}
}
