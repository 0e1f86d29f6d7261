package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/auth"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	users   repository.UserRepository
	hasher  security.PasswordHasher
	tokens  auth.JWTService
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewService builds the credential checker. A cacheTTL of zero disables the
// credential cache.
func NewService(users repository.UserRepository, hasher security.PasswordHasher, tokens auth.JWTService,
	cacheTTL time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Service {
	s := &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
		logger:  logger.With().Str("component", "auth").Logger(),
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// Authenticate checks a username and password and returns the user id.
func (s *Service) Authenticate(ctx context.Context, username, password string) (int64, error) {
	key := credentialKey(username, password)
	if s.cache != nil {
		if id, ok := s.cache.Get(key); ok {
			if s.metrics != nil {
				s.metrics.CredentialCacheHits.Inc()
			}
			return id.(int64), nil
		}
	}

	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperrors.Unauthorized(ErrInvalidCredentials.Error(), ErrInvalidCredentials)
		}
		return 0, apperrors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Debug().Str("username", username).Msg("password mismatch")
		return 0, apperrors.Unauthorized(ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}

	if s.cache != nil {
		s.cache.SetDefault(key, user.ID)
	}
	return user.ID, nil
}

// TokensEnabled reports whether bearer tokens can be issued.
func (s *Service) TokensEnabled() bool {
	return s.tokens != nil && s.tokens.Enabled()
}

func (s *Service) IssueToken(ctx context.Context, userID int64) (string, time.Time, error) {
	if !s.TokensEnabled() {
		return "", time.Time{}, apperrors.NotFound("token endpoint", auth.ErrTokensDisabled)
	}
	token, expiresAt, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", time.Time{}, apperrors.Internal(err)
	}
	return token, expiresAt, nil
}

func (s *Service) VerifyToken(ctx context.Context, token string) (int64, error) {
	if !s.TokensEnabled() {
		return 0, apperrors.Unauthorized("bearer tokens are not enabled", auth.ErrTokensDisabled)
	}
	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return 0, apperrors.Unauthorized("invalid token", err)
	}
	return userID, nil
}

func credentialKey(username, password string) string {
	h := sha256.New()
	h.Write([]byte(username))
	h.Write([]byte{0})
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}
