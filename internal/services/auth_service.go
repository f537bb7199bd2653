package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/redis"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore keeps signed-in sessions. *redis.Client implements it.
type SessionStore interface {
	SetSession(ctx context.Context, sessionID string, data *redis.SessionData, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Claims is what the session token carries. The session itself lives in
// the store so that signing out revokes the token.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignInResult struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*Session, error)
}

type authService struct {
	users    UserService
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewAuthService(users UserService, sessions SessionStore, secret string, ttl time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: now.Add(s.ttl),
	}
	data := &redis.SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: session.ExpiresAt,
	}
	if err := s.sessions.SetSession(ctx, session.ID, data, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims := Claims{
		SessionID: session.ID,
		Email:     user.Email,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID.String()), zap.String("session_id", session.ID))
	return &SignInResult{Token: token, Session: session}, nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, claims.SessionID)
}

// CurrentSession resolves a token to its live session, or apperr.ErrUnauthorized.
func (s *authService) CurrentSession(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	data, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	return &Session{
		ID:        claims.SessionID,
		UserID:    data.UserID,
		Email:     data.Email,
		Role:      data.Role,
		ExpiresAt: data.ExpiresAt,
	}, nil
}

func (s *authService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}
