// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/polTorrent/biblioteca-universal-arion/models"
	"github.com/polTorrent/biblioteca-universal-arion/remote"
	"github.com/polTorrent/biblioteca-universal-arion/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be between 8 and 72 characters")
)

const accountsTable = "accounts"

// EventKind distinguishes session changes.
type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
)

func (k EventKind) String() string {
	if k == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// Event reports a session change to listeners.
type Event struct {
	Kind      EventKind
	ProfileID string
	Email     string
}

// Listener is called synchronously after every sign-in and sign-out.
type Listener func(ctx context.Context, e Event)

// Registrar creates the loyalty profile that belongs to a new account.
type Registrar interface {
	Register(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// Session is the signed-in account on this device.
type Session struct {
	ProfileID string    `json:"profile_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager owns the remote accounts and the device's current session.
type Manager struct {
	client    *remote.Client
	registrar Registrar
	tokens    *TokenService
	cost      int

	mu        sync.RWMutex
	current   *Session
	listeners []Listener
}

func NewManager(client *remote.Client, registrar Registrar, tokens *TokenService) *Manager {
	return &Manager{
		client:    client,
		registrar: registrar,
		tokens:    tokens,
		cost:      bcrypt.DefaultCost,
	}
}

// Tokens returns the service used to sign session tokens.
func (m *Manager) Tokens() *TokenService {
	return m.tokens
}

// OnChange registers a listener for sign-in and sign-out events.
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SignUp creates an account and its profile, then signs in.
// Member numbers follow sign-up order.
func (m *Manager) SignUp(ctx context.Context, req models.SignUpRequest) (Session, error) {
	email := normalizeEmail(req.Email)
	if len(req.Password) < 8 || len(req.Password) > 72 {
		return Session{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), m.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	members, err := m.client.Count(ctx, "profiles", nil)
	if err != nil {
		return Session{}, remoteErr(err)
	}

	id := uuid.NewString()
	_, err = m.client.Insert(ctx, accountsTable, remote.Row{
		"id":            id,
		"email":         email,
		"password_hash": string(hash),
		"created_at":    time.Now().UTC().Truncate(time.Microsecond),
	})
	if errors.Is(err, remote.ErrUniqueViolation) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, remoteErr(err)
	}

	profile, err := m.registrar.Register(ctx, models.Profile{
		ID:           id,
		Email:        email,
		Name:         req.Name,
		Surname:      req.Surname,
		Newsletter:   req.Newsletter,
		Public:       true,
		MemberNumber: members + 1,
	})
	if err != nil {
		if _, delErr := m.client.Delete(context.WithoutCancel(ctx), accountsTable, remote.Filter{"id": id}); delErr != nil {
			slog.Warn("orphaned account after failed sign-up", "account_id", id, "error", delErr)
		}
		if errors.Is(err, store.ErrDuplicateEntry) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}

	slog.Info("account created", "profile_id", profile.ID, "member_number", profile.MemberNumber)
	return m.start(ctx, profile.ID, email)
}

// SignIn checks the credentials and makes the account the current session.
func (m *Manager) SignIn(ctx context.Context, req models.SignInRequest) (Session, error) {
	email := normalizeEmail(req.Email)
	rows, err := m.client.Get(ctx, accountsTable, remote.Filter{"email": email}, remote.Query{Limit: 1})
	if err != nil {
		return Session{}, remoteErr(err)
	}
	if len(rows) == 0 {
		return Session{}, ErrInvalidCredentials
	}

	account := rows[0]
	if err := bcrypt.CompareHashAndPassword([]byte(account.String("password_hash")), []byte(req.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return m.start(ctx, account.String("id"), email)
}

// SignOut ends the current session. Signing out with no session is a no-op.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if prev == nil {
		return
	}
	m.notify(ctx, Event{Kind: SignedOut, ProfileID: prev.ProfileID, Email: prev.Email})
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// Current returns the signed-in session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

func (m *Manager) start(ctx context.Context, profileID, email string) (Session, error) {
	token, expires, err := m.tokens.Issue(profileID, email)
	if err != nil {
		return Session{}, err
	}
	sess := Session{ProfileID: profileID, Email: email, Token: token, ExpiresAt: expires}

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()

	m.notify(ctx, Event{Kind: SignedIn, ProfileID: profileID, Email: email})
	return sess, nil
}

func (m *Manager) notify(ctx context.Context, e Event) {
	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, e)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func remoteErr(err error) error {
	if errors.Is(err, remote.ErrUnavailable) {
		return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
	}
	return err
}
