package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/voltaria/voltaria-backend/pkg/auth"
	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/security"
)

// Service authenticates users and issues access tokens. Request throttling is
// handled by the auth rate limit middleware in front of the login route.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}

// LoginInput carries the submitted credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	UserID      uuid.UUID      `json:"user_id"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
}

type userLoader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type service struct {
	users  userLoader
	jwtCfg config.JWTConfig
	logg   *logger.Logger
	nowFn  func() time.Time
}

// NewService constructs the login service.
func NewService(users userLoader, jwtCfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:  users,
		jwtCfg: jwtCfg,
		logg:   logg,
		nowFn:  time.Now,
	}, nil
}

// Login verifies credentials and mints a JWT. Failures are deliberately
// indistinguishable between unknown email and wrong password.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		logCtx := s.logg.WithFields(ctx, map[string]any{"email": email})
		s.logg.Warn(logCtx, "login failed: bad password")
		return nil, invalidCredentials()
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.nowFn(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
		s.logg.Warn(logCtx, "recording last login failed")
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtCfg.ExpirationMinutes * 60,
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
	}, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
