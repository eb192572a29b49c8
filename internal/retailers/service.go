package retailers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/config"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
	"github.com/voltaria/voltaria-backend/pkg/security"
)

const tempPasswordLength = 14

// Service manages retailer accounts.
type Service interface {
	CreateRetailer(ctx context.Context, input CreateRetailerInput) (*RetailerDTO, error)
	GetRetailer(ctx context.Context, id uuid.UUID) (*RetailerDTO, error)
	ListRetailers(ctx context.Context, filter ListFilter, params pagination.Params) (*RetailerListResult, error)
	UpdateRetailer(ctx context.Context, id uuid.UUID, input UpdateRetailerInput) (*RetailerDTO, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService constructs a retailer service instance.
func NewService(repo *Repository, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("retailer repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg, logg: logg}, nil
}

// CreateRetailer opens an active retailer account. Passwords are hashed with
// Argon2id; a generated temporary password is returned once when none was
// supplied.
func (s *service) CreateRetailer(ctx context.Context, input CreateRetailerInput) (*RetailerDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	taken, err := s.repo.EmailTaken(ctx, email, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	password := input.Password
	tempPassword := ""
	if password == "" {
		tempPassword, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating temporary password")
		}
		password = tempPassword
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Role:         enums.UserRoleRetailer,
		CompanyName:  input.CompanyName,
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating retailer")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": created.ID.String()})
	s.logg.Info(logCtx, "retailer account created")

	dto := toRetailerDTO(created)
	dto.TempPassword = tempPassword
	return dto, nil
}

// GetRetailer loads one retailer account.
func (s *service) GetRetailer(ctx context.Context, id uuid.UUID) (*RetailerDTO, error) {
	user, err := s.loadRetailer(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRetailerDTO(user), nil
}

// ListRetailers returns a cursor page of retailer accounts.
func (s *service) ListRetailers(ctx context.Context, filter ListFilter, params pagination.Params) (*RetailerListResult, error) {
	users, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing retailers")
	}
	result := &RetailerListResult{Retailers: make([]RetailerDTO, 0, len(users)), NextCursor: nextCursor}
	for i := range users {
		result.Retailers = append(result.Retailers, *toRetailerDTO(&users[i]))
	}
	return result, nil
}

// UpdateRetailer mutates account fields. A new password is re-hashed; an email
// change is checked for uniqueness.
func (s *service) UpdateRetailer(ctx context.Context, id uuid.UUID, input UpdateRetailerInput) (*RetailerDTO, error) {
	user, err := s.loadRetailer(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
		}
		taken, err := s.repo.EmailTaken(ctx, email, &user.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		user.Email = email
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password cannot be empty")
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}
		user.PasswordHash = hash
	}
	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.CompanyName != nil {
		user.CompanyName = input.CompanyName
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating retailer")
	}
	return toRetailerDTO(updated), nil
}

func (s *service) loadRetailer(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading retailer")
	}
	if user.Role != enums.UserRoleRetailer {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
	}
	return user, nil
}
