package activity

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// maxExportRows caps a single export file.
const maxExportRows = 50000

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat converts raw input into an ExportFormat.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return ExportFormatCSV, nil
	case "xlsx":
		return ExportFormatXLSX, nil
	default:
		return "", fmt.Errorf("invalid export format %q", value)
	}
}

// Service records and exposes the admin activity trail.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error)
	Export(ctx context.Context, w io.Writer, filter ListFilter, format ExportFormat) (int, error)
}

// Entry is one admin mutation to record.
type Entry struct {
	ActorID    uuid.UUID
	ActorEmail string
	Action     enums.ActivityAction
	EntityType string
	EntityID   *string
	Detail     string
}

// EntryDTO is the API representation of an activity row.
type EntryDTO struct {
	ID         uuid.UUID            `json:"id"`
	ActorID    uuid.UUID            `json:"actor_id"`
	ActorEmail string               `json:"actor_email"`
	Action     enums.ActivityAction `json:"action"`
	EntityType string               `json:"entity_type"`
	EntityID   *string              `json:"entity_id,omitempty"`
	Detail     string               `json:"detail"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ListResult is a cursor page of activity rows.
type ListResult struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// exportRow flattens an activity row for CSV encoding.
type exportRow struct {
	CreatedAt  string `csv:"timestamp"`
	ActorEmail string `csv:"actor"`
	Action     string `csv:"action"`
	EntityType string `csv:"entity_type"`
	EntityID   string `csv:"entity_id"`
	Detail     string `csv:"detail"`
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs the activity service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Record writes one activity row. Recording failures are reported but callers
// generally log and continue; the audit trail never blocks the mutation.
func (s *service) Record(ctx context.Context, entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid activity action")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity type is required")
	}

	row := &models.ActivityLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     entry.Detail,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording activity")
	}
	return nil
}

// List returns a cursor page of activity rows.
func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	entries, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing activity")
	}
	result := &ListResult{Entries: make([]EntryDTO, 0, len(entries)), NextCursor: nextCursor}
	for _, entry := range entries {
		result.Entries = append(result.Entries, EntryDTO{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			ActorEmail: entry.ActorEmail,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return result, nil
}

// Export writes the filtered activity trail to w in the requested format and
// returns the number of exported rows.
func (s *service) Export(ctx context.Context, w io.Writer, filter ListFilter, format ExportFormat) (int, error) {
	entries, err := s.repo.ListAll(ctx, filter, maxExportRows)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading activity for export")
	}

	rows := make([]exportRow, 0, len(entries))
	for _, entry := range entries {
		entityID := ""
		if entry.EntityID != nil {
			entityID = *entry.EntityID
		}
		rows = append(rows, exportRow{
			CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
			ActorEmail: entry.ActorEmail,
			Action:     string(entry.Action),
			EntityType: entry.EntityType,
			EntityID:   entityID,
			Detail:     entry.Detail,
		})
	}

	switch format {
	case ExportFormatCSV:
		if err := gocsv.Marshal(&rows, w); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv export")
		}
	case ExportFormatXLSX:
		if err := writeXLSX(w, rows); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing xlsx export")
		}
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid export format")
	}
	return len(rows), nil
}

func writeXLSX(w io.Writer, rows []exportRow) error {
	file := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Timestamp", "Actor", "Action", "Entity Type", "Entity ID", "Detail"}
	for col, header := range headers {
		file.SetCellValue(sheet, cellRef(col, 0), header)
	}
	for i, row := range rows {
		values := []string{row.CreatedAt, row.ActorEmail, row.Action, row.EntityType, row.EntityID, row.Detail}
		for col, value := range values {
			file.SetCellValue(sheet, cellRef(col, i+1), value)
		}
	}

	_, err := file.WriteTo(w)
	return err
}

func cellRef(col, row int) string {
	return excelize.ToAlphaString(col) + fmt.Sprint(row+1)
}
