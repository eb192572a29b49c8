package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/voltaria/voltaria-backend/pkg/auth"
	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/security"
)

type stubUserLoader struct {
	users       map[string]*models.User
	lastLoginID *uuid.UUID
}

func (s *stubUserLoader) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserLoader) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	s.lastLoginID = &id
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-sec",
		Issuer:            "voltaria-test",
		ExpirationMinutes: 30,
	}
}

type loginFixture struct {
	svc    Service
	users  *stubUserLoader
	userID uuid.UUID
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	hash, err := security.HashPassword("open sesame", config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)

	userID := uuid.New()
	users := &stubUserLoader{users: map[string]*models.User{
		"dana@beaconoutdoor.example": {
			ID:           userID,
			Email:        "dana@beaconoutdoor.example",
			PasswordHash: hash,
			FirstName:    "Dana",
			LastName:     "Velasquez",
			Role:         enums.UserRoleRetailer,
			IsActive:     true,
		},
	}}

	svc, err := NewService(users, testJWTConfig(), logger.New(logger.Options{ServiceName: "auth-test"}))
	require.NoError(t, err)
	return &loginFixture{svc: svc, users: users, userID: userID}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	f := newLoginFixture(t)

	result, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "Dana@BeaconOutdoor.example",
		Password: "open sesame",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, 30*60, result.ExpiresIn)
	assert.Equal(t, f.userID, result.UserID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.userID, claims.UserID)
	assert.Equal(t, enums.UserRoleRetailer, claims.Role)

	require.NotNil(t, f.users.lastLoginID)
	assert.Equal(t, f.userID, *f.users.lastLoginID)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "dana@beaconoutdoor.example",
		Password: "wrong",
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
	assert.Nil(t, f.users.lastLoginID)
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newLoginFixture(t)

	_, wrongPassword := f.svc.Login(context.Background(), LoginInput{
		Email:    "dana@beaconoutdoor.example",
		Password: "wrong",
	})
	_, unknownEmail := f.svc.Login(context.Background(), LoginInput{
		Email:    "nobody@beaconoutdoor.example",
		Password: "whatever",
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newLoginFixture(t)
	f.users.users["dana@beaconoutdoor.example"].IsActive = false

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "dana@beaconoutdoor.example",
		Password: "open sesame",
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestLoginMissingFields(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "dana@beaconoutdoor.example"})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}
