package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/todo-team/todolist/internal/apperr"
	"github.com/todo-team/todolist/internal/config"
	"github.com/todo-team/todolist/internal/identity"
)

// Service issues and verifies the access/refresh token pair.
type Service struct {
	cfg    config.AuthConfig
	users  *identity.Service
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(cfg config.AuthConfig, users *identity.Service, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{cfg: cfg, users: users, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenPair is a freshly minted access/refresh pair. ExpiresIn is the access
// token lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Session is the outcome of a successful sign-in.
type Session struct {
	User   identity.User
	Tokens TokenPair
}

// SignIn authenticates the credentials and issues a token pair.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	pair, err := s.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID))
	return Session{User: user, Tokens: pair}, nil
}

// Issue signs an access token and a refresh token carrying userID and role.
func (s *Service) Issue(userID string, role identity.Role) (TokenPair, error) {
	now := s.now()
	base := Claims{UserID: userID, Role: string(identity.NormalizeRole(string(role)))}

	access := base
	access.Kind = tokenAccess
	accessToken, err := signHS256(access, []byte(s.cfg.AccessSecret), now, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	refresh := base
	refresh.Kind = tokenRefresh
	refreshToken, err := signHS256(refresh, []byte(s.cfg.RefreshSecret), now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (s *Service) ParseAccess(token string) (Claims, error) {
	claims, err := parseHS256(token, tokenAccess, []byte(s.cfg.AccessSecret), s.now)
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.KindUnauthorized, "Invalid or expired token", err)
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token and returns its claims.
func (s *Service) ParseRefresh(token string) (Claims, error) {
	claims, err := parseHS256(token, tokenRefresh, []byte(s.cfg.RefreshSecret), s.now)
	if err != nil {
		return Claims{}, apperr.Wrap(apperr.KindUnauthorized, "Invalid refresh token", err)
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new access token. The user must
// still exist; the role is reloaded so promotions take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.New(apperr.KindUnauthorized, "Please login now")
	}
	claims, err := s.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, "This account does not exist", err)
	}
	access := Claims{UserID: user.ID, Role: string(user.Role), Kind: tokenAccess}
	token, err := signHS256(access, []byte(s.cfg.AccessSecret), s.now(), s.cfg.AccessTokenTTL)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return token, nil
}
