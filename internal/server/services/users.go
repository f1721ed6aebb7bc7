// Package services contains server-side business logic. UserService handles
// registration, login, current-user resolution, refresh token rotation
// and logout.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/contactkeeper/internal/server/models"
	"github.com/dmitrijs2005/contactkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	hasher      *auth.Hasher
	limiter     ratelimit.LoginLimiter
	metrics     *metrics.Metrics
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService wires the service. A nil limiter disables throttling, a nil
// metrics disables recording and a nil logger discards output.
func NewUserService(
	m repomanager.RepositoryManager,
	issuer *auth.Issuer,
	hasher *auth.Hasher,
	limiter ratelimit.LoginLimiter,
	mtr *metrics.Metrics,
	logger logging.Logger,
) *UserService {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &UserService{
		repomanager: m,
		issuer:      issuer,
		hasher:      hasher,
		limiter:     limiter,
		metrics:     mtr,
		logger:      logger,
	}
}

// Register creates a new user. A taken username or email yields
// common.ErrorAlreadyExists, bad input common.ErrorValidation.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "hashing password failed", "error", err)
		return nil, common.ErrorInternal
	}

	var created *models.User
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repo users.Repository) error {
		if err := ensureAbsent(repo.GetUserByEmail(ctx, email)); err != nil {
			return err
		}
		if err := ensureAbsent(repo.GetUserByLogin(ctx, username)); err != nil {
			return err
		}

		u, err := repo.Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "creating user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

func ensureAbsent(_ *models.User, err error) error {
	switch {
	case err == nil:
		return common.ErrorAlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

// Login verifies credentials and issues a token pair. The new refresh token
// replaces any previously stored one, so at most one session can refresh.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if err := s.limiter.Check(ctx, username); err != nil {
		if errors.Is(err, common.ErrTooManyRequests) {
			s.metrics.Login(metrics.ResultThrottled)
			s.logger.Warn(ctx, "login throttled", "username", username)
			return nil, common.ErrTooManyRequests
		}
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.metrics.Login(metrics.ResultError)
			s.logger.Error(ctx, "loading user failed", "error", err)
			return nil, common.ErrorInternal
		}
		// equalise timing with the existing-user path
		s.hasher.Verify(password, s.dummy())
		return nil, s.loginFailed(ctx, username)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, username)
	}

	pair, err := s.generateTokenPair(user.UserName)
	if err != nil {
		s.metrics.Login(metrics.ResultError)
		s.logger.Error(ctx, "issuing tokens failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		s.metrics.Login(metrics.ResultError)
		s.logger.Error(ctx, "storing refresh token failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		s.logger.Warn(ctx, "login limiter reset failed", "error", err)
	}

	s.metrics.Login(metrics.ResultSuccess)
	return pair, nil
}

func (s *UserService) loginFailed(ctx context.Context, username string) error {
	s.metrics.Login(metrics.ResultFailure)
	s.logger.Warn(ctx, "login failed", "username", username)
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		s.logger.Warn(ctx, "login limiter record failed", "error", err)
	}
	return common.ErrInvalidCredentials
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("contactkeeper-dummy-password")
	})
	return s.dummyHash
}

// CurrentUser resolves an access token to its user. Every token or lookup
// failure is reported as common.ErrorUnauthorized; storage failures as
// common.ErrorInternal. It has no side effects.
func (s *UserService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.issuer.Verify(accessToken, common.TokenTypeAccess)
	if err != nil {
		s.metrics.Resolve(metrics.ResultFailure)
		s.logger.Debug(ctx, "access token rejected")
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users().GetUserByLogin(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Resolve(metrics.ResultFailure)
			s.logger.Warn(ctx, "access token for unknown user", "username", claims.Subject)
			return nil, common.ErrorUnauthorized
		}
		s.metrics.Resolve(metrics.ResultError)
		s.logger.Error(ctx, "loading user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Resolve(metrics.ResultSuccess)
	return user, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// be the one currently stored for the user; it is consumed by the swap, so a
// second use of the same token fails with common.ErrorUnauthorized.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken, common.TokenTypeRefresh)
	if err != nil {
		return nil, s.refreshFailed(ctx, "refresh token rejected")
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByLogin(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.refreshFailed(ctx, "refresh token for unknown user")
		}
		s.metrics.Refresh(metrics.ResultError)
		s.logger.Error(ctx, "loading user failed", "error", err)
		return nil, common.ErrorInternal
	}

	if user.RefreshToken == nil || !tokensEqual(*user.RefreshToken, refreshToken) {
		return nil, s.refreshFailed(ctx, "refresh token already consumed")
	}

	pair, err := s.generateTokenPair(user.UserName)
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		s.logger.Error(ctx, "issuing tokens failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrStaleToken) {
			return nil, s.refreshFailed(ctx, "refresh token lost rotation race")
		}
		s.metrics.Refresh(metrics.ResultError)
		s.logger.Error(ctx, "rotating refresh token failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Refresh(metrics.ResultSuccess)
	return pair, nil
}

func (s *UserService) refreshFailed(ctx context.Context, reason string) error {
	s.metrics.Refresh(metrics.ResultFailure)
	s.logger.Warn(ctx, reason)
	return common.ErrorUnauthorized
}

// Logout forgets the stored refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *UserService) Logout(ctx context.Context, user *models.User) error {
	if err := s.repomanager.Users().SetRefreshToken(ctx, user.ID, nil); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "clearing refresh token failed", "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "user logged out", "user_id", user.ID)
	return nil
}

// --- helpers below ---

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *UserService) generateTokenPair(subject string) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(subject, 0)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(subject, 0)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
