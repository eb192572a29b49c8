package warranties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
	"github.com/voltaria/voltaria-backend/pkg/outbox/payloads"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Service exposes the warranty lifecycle: public registration and validation
// plus admin review.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*WarrantyDTO, error)
	Approve(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*WarrantyDTO, error)
	Reject(ctx context.Context, id uuid.UUID, reason string, actor *outbox.ActorRef) (*WarrantyDTO, error)
	Validate(ctx context.Context, serialNumber string) (*ValidationResult, error)
	GetWarranty(ctx context.Context, id uuid.UUID) (*WarrantyDTO, error)
	ListWarranties(ctx context.Context, filter ListFilter, params pagination.Params) (*WarrantyListResult, error)
	CountByStatus(ctx context.Context) (*StatusCounts, error)
}

type unitLoader interface {
	FindBySerial(ctx context.Context, serial string) (*models.ProductUnit, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type certificateGenerator interface {
	Generate(ctx context.Context, warranty *models.Warranty) (string, error)
}

type service struct {
	repo     *Repository
	units    unitLoader
	products productLoader
	dbClient *db.Client
	events   eventEmitter
	certs    certificateGenerator
	logg     *logger.Logger
	nowFn    func() time.Time
}

// NewService constructs a warranty service instance.
func NewService(repo *Repository, units unitLoader, products productLoader, dbClient *db.Client, events eventEmitter, certs certificateGenerator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warranty repository required")
	}
	if units == nil {
		return nil, fmt.Errorf("unit loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if certs == nil {
		return nil, fmt.Errorf("certificate generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		units:    units,
		products: products,
		dbClient: dbClient,
		events:   events,
		certs:    certs,
		logg:     logg,
		nowFn:    time.Now,
	}, nil
}

// Register records a pending warranty for the unit matching the serial. The
// warranty period is snapshotted from the product at this moment; later
// catalog edits never touch an in-flight registration.
func (s *service) Register(ctx context.Context, input RegisterInput) (*WarrantyDTO, error) {
	serial := strings.TrimSpace(input.SerialNumber)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}
	if strings.TrimSpace(input.PurchaserName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchaser name is required")
	}
	if strings.TrimSpace(input.PurchaserEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchaser email is required")
	}
	if !input.PurchaseType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase type")
	}
	if input.PurchaseDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase date is required")
	}
	if input.PurchaseDate.After(s.nowFn()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase date cannot be in the future")
	}

	unit, err := s.units.FindBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "serial number not recognized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up serial")
	}

	open, err := s.repo.HasOpenRegistration(ctx, unit.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing registrations")
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "serial number already registered")
	}

	product, err := s.products.FindByID(ctx, unit.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	warranty := &models.Warranty{
		ID:                   uuid.New(),
		ProductID:            product.ID,
		UnitID:               unit.ID,
		ProductName:          product.Name,
		ModelNumber:          unit.ModelNumber,
		SerialNumber:         unit.SerialNumber,
		PurchaserName:        strings.TrimSpace(input.PurchaserName),
		PurchaserEmail:       strings.ToLower(strings.TrimSpace(input.PurchaserEmail)),
		PurchaserPhone:       input.PurchaserPhone,
		PurchaseDate:         input.PurchaseDate,
		PurchaseType:         input.PurchaseType,
		Status:               enums.WarrantyStatusPending,
		WarrantyPeriodMonths: product.WarrantyPeriodMonths,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, warranty); err != nil {
			return err
		}
		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWarrantyRegistered,
			AggregateType: enums.AggregateWarranty,
			AggregateID:   warranty.ID,
			Data: payloads.WarrantyRegisteredEvent{
				WarrantyID:     warranty.ID,
				ProductID:      warranty.ProductID,
				SerialNumber:   warranty.SerialNumber,
				ProductName:    warranty.ProductName,
				PurchaserEmail: warranty.PurchaserEmail,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering warranty")
	}

	return toWarrantyDTO(warranty), nil
}

// Approve activates a pending warranty. The window starts at the purchase
// date, not the approval date.
func (s *service) Approve(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) (*WarrantyDTO, error) {
	warranty, err := s.loadForDecision(ctx, id)
	if err != nil {
		return nil, err
	}

	start := warranty.PurchaseDate
	end := start.AddDate(0, warranty.WarrantyPeriodMonths, 0)
	warranty.Status = enums.WarrantyStatusApproved
	warranty.WarrantyStartDate = &start
	warranty.WarrantyEndDate = &end
	warranty.RejectionReason = nil

	// Certificate upload happens before commit so the approval event carries
	// the URL. No fallback: an upload failure aborts the approval.
	url, certErr := s.certs.Generate(ctx, warranty)
	if certErr != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"warranty_id": warranty.ID.String()})
		s.logg.Error(logCtx, "certificate generation failed", certErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, certErr, "certificate generation failed")
	}
	warranty.CertificateURL = &url

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, warranty); err != nil {
			return err
		}
		if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWarrantyApproved,
			AggregateType: enums.AggregateWarranty,
			AggregateID:   warranty.ID,
			Actor:         actor,
			Data:          decisionPayload(warranty),
			Version:       1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequest,
			AggregateType: enums.AggregateWarranty,
			AggregateID:   warranty.ID,
			Actor:         actor,
			Data: payloads.NotificationRequestedEvent{
				RecipientEmail: warranty.PurchaserEmail,
				Type:           enums.NotificationTypeWarrantyApproved,
				Title:          "Warranty approved",
				Message:        fmt.Sprintf("Your warranty for %s (serial %s) is active until %s.", warranty.ProductName, warranty.SerialNumber, end.Format("2006-01-02")),
				Link:           warranty.CertificateURL,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approving warranty")
	}

	return toWarrantyDTO(warranty), nil
}

// Reject closes a pending warranty with a reason.
func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string, actor *outbox.ActorRef) (*WarrantyDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	warranty, err := s.loadForDecision(ctx, id)
	if err != nil {
		return nil, err
	}

	warranty.Status = enums.WarrantyStatusRejected
	warranty.RejectionReason = &reason
	warranty.WarrantyStartDate = nil
	warranty.WarrantyEndDate = nil

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, warranty); err != nil {
			return err
		}
		if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWarrantyRejected,
			AggregateType: enums.AggregateWarranty,
			AggregateID:   warranty.ID,
			Actor:         actor,
			Data:          decisionPayload(warranty),
			Version:       1,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequest,
			AggregateType: enums.AggregateWarranty,
			AggregateID:   warranty.ID,
			Actor:         actor,
			Data: payloads.NotificationRequestedEvent{
				RecipientEmail: warranty.PurchaserEmail,
				Type:           enums.NotificationTypeWarrantyRejected,
				Title:          "Warranty registration rejected",
				Message:        fmt.Sprintf("Your warranty registration for %s (serial %s) was rejected: %s", warranty.ProductName, warranty.SerialNumber, reason),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting warranty")
	}

	return toWarrantyDTO(warranty), nil
}

// Validate classifies a serial. Exactly one state applies to any serial at
// any point in time.
func (s *service) Validate(ctx context.Context, serialNumber string) (*ValidationResult, error) {
	serial := strings.TrimSpace(serialNumber)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}

	unit, err := s.units.FindBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{State: enums.ValidationNotFound, SerialNumber: serial}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up serial")
	}

	result := &ValidationResult{
		SerialNumber: unit.SerialNumber,
		ModelNumber:  unit.ModelNumber,
	}
	if product, err := s.products.FindByID(ctx, unit.ProductID); err == nil {
		result.ProductName = product.Name
	}

	warranty, err := s.repo.FindLatestByUnit(ctx, unit.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.State = enums.ValidationNotRegistered
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warranty")
	}

	status := warranty.Status
	result.Status = &status
	result.ProductName = warranty.ProductName

	switch warranty.Status {
	case enums.WarrantyStatusPending:
		result.State = enums.ValidationPending
	case enums.WarrantyStatusRejected:
		result.State = enums.ValidationRejected
		result.RejectionReason = warranty.RejectionReason
	case enums.WarrantyStatusApproved:
		result.WarrantyEndDate = warranty.WarrantyEndDate
		now := s.nowFn()
		if warranty.WarrantyEndDate != nil && !now.After(*warranty.WarrantyEndDate) {
			result.State = enums.ValidationActive
			days := int(warranty.WarrantyEndDate.Sub(now).Hours() / 24)
			result.DaysRemaining = &days
		} else {
			result.State = enums.ValidationExpired
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown warranty status")
	}
	return result, nil
}

// GetWarranty loads one warranty.
func (s *service) GetWarranty(ctx context.Context, id uuid.UUID) (*WarrantyDTO, error) {
	warranty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warranty not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warranty")
	}
	return toWarrantyDTO(warranty), nil
}

// ListWarranties returns a cursor page of warranties.
func (s *service) ListWarranties(ctx context.Context, filter ListFilter, params pagination.Params) (*WarrantyListResult, error) {
	warranties, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing warranties")
	}
	result := &WarrantyListResult{Warranties: make([]WarrantyDTO, 0, len(warranties)), NextCursor: nextCursor}
	for i := range warranties {
		result.Warranties = append(result.Warranties, *toWarrantyDTO(&warranties[i]))
	}
	return result, nil
}

// CountByStatus tallies warranties per status.
func (s *service) CountByStatus(ctx context.Context) (*StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting warranties")
	}
	return &StatusCounts{
		Pending:  counts[enums.WarrantyStatusPending],
		Approved: counts[enums.WarrantyStatusApproved],
		Rejected: counts[enums.WarrantyStatusRejected],
	}, nil
}

func (s *service) loadForDecision(ctx context.Context, id uuid.UUID) (*models.Warranty, error) {
	warranty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warranty not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading warranty")
	}
	if warranty.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("warranty is already %s", warranty.Status))
	}
	return warranty, nil
}

func decisionPayload(warranty *models.Warranty) payloads.WarrantyDecisionEvent {
	return payloads.WarrantyDecisionEvent{
		WarrantyID:      warranty.ID,
		SerialNumber:    warranty.SerialNumber,
		ProductName:     warranty.ProductName,
		PurchaserName:   warranty.PurchaserName,
		PurchaserEmail:  warranty.PurchaserEmail,
		Status:          warranty.Status,
		RejectionReason: warranty.RejectionReason,
		WarrantyEndDate: warranty.WarrantyEndDate,
		CertificateURL:  warranty.CertificateURL,
	}
}
