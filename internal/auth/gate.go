package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	// bcrypt menolak input > 72 byte
	maxPasswordLen = 72
)

type Gate struct {
	Users    UserStore
	Sessions SessionStore
	TTL      time.Duration
	Log      *slog.Logger
	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost.
	Cost int
	Now  func() time.Time
}

func NewGate(users UserStore, sessions SessionStore, ttl time.Duration, log *slog.Logger) *Gate {
	return &Gate{Users: users, Sessions: sessions, TTL: ttl, Log: log, Now: time.Now}
}

func (g *Gate) cost() int {
	if g.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return g.Cost
}

// Login verifies the password and issues an opaque bearer token.
func (g *Gate) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := g.Users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Active {
		return Session{}, ErrAccountDisabled
	}

	token := uuid.NewString()
	if err := g.Sessions.Put(ctx, token, u.Identity(), g.TTL); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	g.Log.Info("user logged in", "user_id", u.ID, "username", u.Username)
	return Session{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: g.Now().Add(g.TTL).UTC(),
		Identity:  u.Identity(),
	}, nil
}

// Resolve maps a token to the current identity. Role and active flag are
// re-read from the user store so changes apply to live sessions.
func (g *Gate) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	id, ok, err := g.Sessions.Get(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	u, err := g.Users.Get(ctx, id.ID)
	if errors.Is(err, ErrUserNotFound) || (err == nil && !u.Active) {
		_ = g.Sessions.Delete(ctx, token)
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, err
	}
	return u.Identity(), nil
}

func (g *Gate) Logout(ctx context.Context, token string) error {
	return g.Sessions.Delete(ctx, token)
}

func (g *Gate) Register(ctx context.Context, username, password string, role Role) (User, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return User{}, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidUser, minUsernameLen, maxUsernameLen)
	}
	if n := len(password); n < minPasswordLen || n > maxPasswordLen {
		return User{}, fmt.Errorf("%w: password must be %d-%d bytes", ErrInvalidUser, minPasswordLen, maxPasswordLen)
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: role must be owner or employee", ErrInvalidUser)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost())
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    g.Now().UTC().Truncate(time.Microsecond),
	}
	if err := g.Users.Create(ctx, u); err != nil {
		return User{}, err
	}
	g.Log.Info("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// EnsureOwner creates the bootstrap owner account when it does not exist yet.
// An empty username disables bootstrapping.
func (g *Gate) EnsureOwner(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	_, err := g.Users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	_, err = g.Register(ctx, username, password, RoleOwner)
	if errors.Is(err, ErrUsernameTaken) {
		// instance lain sudah membuatnya duluan
		return nil
	}
	return err
}

func (g *Gate) ListUsers(ctx context.Context) ([]User, error) {
	return g.Users.List(ctx)
}

func (g *Gate) SetRole(ctx context.Context, id string, role Role) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: role must be owner or employee", ErrInvalidUser)
	}
	if err := g.Users.SetRole(ctx, id, role); err != nil {
		return User{}, err
	}
	return g.Users.Get(ctx, id)
}

func (g *Gate) SetActive(ctx context.Context, id string, active bool) (User, error) {
	if err := g.Users.SetActive(ctx, id, active); err != nil {
		return User{}, err
	}
	return g.Users.Get(ctx, id)
}
