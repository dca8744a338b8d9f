// Package auth issues and verifies user sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	// ErrUnauthenticated means the operation needs a signed-in session.
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid email or password format")
)

// Session is the signed-in user as seen by the service layers. A nil
// *Session means nobody is signed in.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	accounts store.Accounts
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(accounts store.Accounts, secret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	if _, err := s.accounts.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "User signed up", slog.String("user_id", user.ID.String()))
	return user, nil
}

// SignIn checks the credentials and opens a session. The returned token
// identifies that session until it expires or SignOut is called.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	user, err := s.accounts.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	row := &models.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.accounts.CreateSession(ctx, row); err != nil {
		return "", nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        row.ID.String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed in", slog.String("user_id", user.ID.String()))
	return signed, &Session{ID: row.ID, UserID: user.ID, Email: user.Email, ExpiresAt: row.ExpiresAt}, nil
}

// SignOut revokes the session. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	return s.accounts.DeleteSession(ctx, sess.ID)
}

// Authenticate resolves a token to its live session. Any failure other than
// a store outage is reported as ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sessionID, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	row, err := s.accounts.SessionByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if row.UserID != userID || !s.now().Before(row.ExpiresAt) {
		return nil, ErrUnauthenticated
	}

	return &Session{ID: row.ID, UserID: row.UserID, Email: c.Email, ExpiresAt: row.ExpiresAt}, nil
}
