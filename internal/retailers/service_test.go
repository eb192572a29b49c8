package retailers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
	"github.com/voltaria/voltaria-backend/pkg/security"
)

func setupRetailersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'retailer',
  company_name TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	return conn
}

// Fast argon parameters keep the hashing tests quick.
func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newRetailerService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := setupRetailersTestDB(t)
	svc, err := NewService(NewRepository(conn), testPasswordConfig(), logger.New(logger.Options{ServiceName: "retailers-test"}))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateRetailerHashesPassword(t *testing.T) {
	svc, conn := newRetailerService(t)

	created, err := svc.CreateRetailer(context.Background(), CreateRetailerInput{
		Email:     "Dana@BeaconOutdoor.example",
		Password:  "correct horse battery staple",
		FirstName: "Dana",
		LastName:  "Velasquez",
	})
	require.NoError(t, err)

	assert.Equal(t, "dana@beaconoutdoor.example", created.Email)
	assert.Equal(t, enums.UserRoleRetailer, created.Role)
	assert.True(t, created.IsActive)
	assert.Empty(t, created.TempPassword)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", created.ID).Error)
	assert.NotEqual(t, "correct horse battery staple", stored.PasswordHash)

	ok, err := security.VerifyPassword("correct horse battery staple", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateRetailerGeneratesTempPassword(t *testing.T) {
	svc, conn := newRetailerService(t)

	created, err := svc.CreateRetailer(context.Background(), CreateRetailerInput{
		Email:     "ops@harborelectric.example",
		FirstName: "Priya",
		LastName:  "Nair",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.TempPassword)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", created.ID).Error)
	ok, err := security.VerifyPassword(created.TempPassword, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateRetailerRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newRetailerService(t)
	ctx := context.Background()

	_, err := svc.CreateRetailer(ctx, CreateRetailerInput{
		Email:     "dana@beaconoutdoor.example",
		Password:  "pw-one",
		FirstName: "Dana",
		LastName:  "Velasquez",
	})
	require.NoError(t, err)

	_, err = svc.CreateRetailer(ctx, CreateRetailerInput{
		Email:     "DANA@beaconoutdoor.example",
		Password:  "pw-two",
		FirstName: "Other",
		LastName:  "Person",
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())
}

func TestUpdateRetailerDeactivatesAccount(t *testing.T) {
	svc, _ := newRetailerService(t)
	ctx := context.Background()

	created, err := svc.CreateRetailer(ctx, CreateRetailerInput{
		Email:     "dana@beaconoutdoor.example",
		Password:  "pw-one",
		FirstName: "Dana",
		LastName:  "Velasquez",
	})
	require.NoError(t, err)

	inactive := false
	company := "Beacon Outdoor Supply"
	updated, err := svc.UpdateRetailer(ctx, created.ID, UpdateRetailerInput{
		IsActive:    &inactive,
		CompanyName: &company,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.CompanyName)
	assert.Equal(t, company, *updated.CompanyName)
}

func TestListRetailersExcludesAdmins(t *testing.T) {
	svc, conn := newRetailerService(t)
	ctx := context.Background()

	_, err := svc.CreateRetailer(ctx, CreateRetailerInput{
		Email:     "dana@beaconoutdoor.example",
		Password:  "pw-one",
		FirstName: "Dana",
		LastName:  "Velasquez",
	})
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.User{
		ID:           uuid.New(),
		Email:        "admin@voltaria.example",
		PasswordHash: "x",
		FirstName:    "Site",
		LastName:     "Admin",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}).Error)

	result, err := svc.ListRetailers(ctx, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Retailers, 1)
	assert.Equal(t, "dana@beaconoutdoor.example", result.Retailers[0].Email)
}

func TestGetRetailerHidesAdminAccounts(t *testing.T) {
	svc, conn := newRetailerService(t)

	adminID := uuid.New()
	require.NoError(t, conn.Create(&models.User{
		ID:           adminID,
		Email:        "admin@voltaria.example",
		PasswordHash: "x",
		FirstName:    "Site",
		LastName:     "Admin",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}).Error)

	_, err := svc.GetRetailer(context.Background(), adminID)
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}
