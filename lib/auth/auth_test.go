package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benflix/benflix/lib/db/dbtest"
	"github.com/benflix/benflix/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	return NewService(store.New(dbtest.New(t)), "test-secret", time.Hour, dbtest.Logger())
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	user, err := svc.SignUp(ctx, "  Viewer@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "viewer@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	token, sess, err := svc.SignIn(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, sess.UserID)

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "viewer@example.com", got.Email)
}

func TestSignUpRejections(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.SignUp(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SignUp(ctx, "viewer@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SignUp(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "VIEWER@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.SignUp(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "viewer@example.com", "hunter23")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.SignUp(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)
	token, sess, err := svc.SignIn(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, sess))
	require.NoError(t, svc.SignOut(ctx, sess))
	require.NoError(t, svc.SignOut(ctx, nil))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.SignUp(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)
	token, _, err := svc.SignIn(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other := NewService(svc.accounts, "other-secret", time.Hour, dbtest.Logger())
	_, err = other.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.SignUp(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)
	token, sess, err := svc.SignIn(ctx, "viewer@example.com", "hunter22")
	require.NoError(t, err)

	var seen *Session
	handler := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"no header", "", false},
		{"valid bearer", "Bearer " + token, true},
		{"lowercase scheme", "bearer " + token, true},
		{"wrong scheme", "Basic " + token, false},
		{"invalid token", "Bearer nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if tt.want {
				require.NotNil(t, seen)
				assert.Equal(t, sess.UserID, seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
