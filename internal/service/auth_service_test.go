package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-garage/internal/core/auth"
	"go-garage/internal/domain"
	"go-garage/internal/repo"
)

func newAuthService(t *testing.T) (*AuthService, *auth.JWTer) {
	t.Helper()
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "go-garage", TTL: 7 * 24 * time.Hour}
	return NewAuthService(repo.NewUserRepo(setupTestDB(t)), j, nil, time.Minute, nil), j
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s, j := newAuthService(t)

	u, tok, err := s.Register(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.NotEqual(t, "pw", u.PasswordHash)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UID)

	got, tok2, err := s.Login(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, tok2)

	me, err := s.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newAuthService(t)

	_, _, err := s.Register(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	_, _, err = s.Register(ctx, "a@example.com", "other")
	assert.True(t, domain.IsValidation(err))

	// 大小写不同视为不同邮箱
	_, _, err = s.Register(ctx, "A@example.com", "pw")
	assert.NoError(t, err)
}

func TestRegister_RequiresCredentials(t *testing.T) {
	s, _ := newAuthService(t)
	_, _, err := s.Register(context.Background(), " ", "pw")
	assert.True(t, domain.IsValidation(err))
	_, _, err = s.Register(context.Background(), "a@example.com", "")
	assert.True(t, domain.IsValidation(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s, _ := newAuthService(t)
	_, _, err := s.Register(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@example.com", "wrong")
	assert.True(t, domain.IsUnauthorized(err))
	_, _, err = s.Login(ctx, "nobody@example.com", "pw")
	assert.True(t, domain.IsUnauthorized(err))
}

func TestMe_UnknownUser(t *testing.T) {
	s, _ := newAuthService(t)
	_, err := s.Me(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestIsDupKey(t *testing.T) {
	assert.True(t, isDupKey(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isDupKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`)))
	assert.True(t, isDupKey(errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'users.idx_users_email'")))
	assert.False(t, isDupKey(errors.New("connection refused")))
}
