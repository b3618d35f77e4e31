package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestGate() (*Gate, *MemUsers, *clock) {
	c := &clock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	users := NewMemUsers()
	sessions := NewMemSessions()
	sessions.Now = c.now
	g := NewGate(users, sessions, time.Hour, logx.Discard())
	g.Cost = bcrypt.MinCost
	g.Now = c.now
	return g, users, c
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	g, users, _ := newTestGate()

	u, err := g.Register(ctx, "  kasir1 ", "rahasia", RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "kasir1", u.Username)
	assert.True(t, u.Active)
	assert.NotEqual(t, "rahasia", u.PasswordHash)

	stored, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rahasia")))

	sess, err := g.Login(ctx, "kasir1", "rahasia")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, Identity{ID: u.ID, Username: "kasir1", Role: RoleEmployee}, sess.Identity)

	id, err := g.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.ID)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGate()

	cases := []struct {
		name, user, pass string
		role             Role
	}{
		{"short username", "ab", "rahasia", RoleEmployee},
		{"long username", strings.Repeat("a", 51), "rahasia", RoleEmployee},
		{"short password", "kasir", "123", RoleEmployee},
		{"long password", "kasir", strings.Repeat("x", 73), RoleEmployee},
		{"bad role", "kasir", "rahasia", Role("admin")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Register(ctx, tc.user, tc.pass, tc.role)
			assert.ErrorIs(t, err, ErrInvalidUser)
		})
	}

	_, err := g.Register(ctx, "kasir", "rahasia", RoleEmployee)
	require.NoError(t, err)
	_, err = g.Register(ctx, "kasir", "lainnya", RoleOwner)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGate()
	u, err := g.Register(ctx, "kasir", "rahasia", RoleEmployee)
	require.NoError(t, err)

	_, err = g.Login(ctx, "kasir", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = g.Login(ctx, "nobody", "rahasia")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = g.Login(ctx, "kasir", "rahasia")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	g, _, c := newTestGate()
	u, err := g.Register(ctx, "kasir", "rahasia", RoleEmployee)
	require.NoError(t, err)

	_, err = g.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = g.Resolve(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	t.Run("role change applies to live session", func(t *testing.T) {
		sess, err := g.Login(ctx, "kasir", "rahasia")
		require.NoError(t, err)
		_, err = g.SetRole(ctx, u.ID, RoleOwner)
		require.NoError(t, err)
		id, err := g.Resolve(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, RoleOwner, id.Role)
	})

	t.Run("expired", func(t *testing.T) {
		sess, err := g.Login(ctx, "kasir", "rahasia")
		require.NoError(t, err)
		c.t = c.t.Add(time.Hour)
		_, err = g.Resolve(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("logout", func(t *testing.T) {
		sess, err := g.Login(ctx, "kasir", "rahasia")
		require.NoError(t, err)
		require.NoError(t, g.Logout(ctx, sess.Token))
		_, err = g.Resolve(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("deactivated user", func(t *testing.T) {
		sess, err := g.Login(ctx, "kasir", "rahasia")
		require.NoError(t, err)
		_, err = g.SetActive(ctx, u.ID, false)
		require.NoError(t, err)
		_, err = g.Resolve(ctx, sess.Token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestEnsureOwner(t *testing.T) {
	ctx := context.Background()
	g, users, _ := newTestGate()

	require.NoError(t, g.EnsureOwner(ctx, "", ""))
	all, _ := users.List(ctx)
	assert.Empty(t, all)

	require.NoError(t, g.EnsureOwner(ctx, "owner", "owner-pass"))
	require.NoError(t, g.EnsureOwner(ctx, "owner", "ignored"))
	all, _ = users.List(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, RoleOwner, all[0].Role)

	_, err := g.Login(ctx, "owner", "owner-pass")
	assert.NoError(t, err)
}

func TestSetRoleAndActive_NotFound(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGate()
	_, err := g.SetRole(ctx, "missing", RoleOwner)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = g.SetRole(ctx, "missing", Role("root"))
	assert.ErrorIs(t, err, ErrInvalidUser)
	_, err = g.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
