package audit

import (
	"context"
	"fmt"

	"github.com/eventloom/finance-backend/pkg/db/models"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

// Service is the read side of the audit trail.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Recent(ctx context.Context, n int) ([]models.AuditLog, error)
}

type ListParams struct {
	Filter ListFilter
	pagination.Params
}

type ListResult struct {
	Items  []models.AuditLog
	Cursor string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if params.Filter.ResourceType != "" && !params.Filter.ResourceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid resource type")
	}

	rows, err := s.repo.List(ctx, params.Filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}
	items, next := pagination.Trim(rows, params.Limit, func(row models.AuditLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.OccurredAt, ID: row.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Recent(ctx context.Context, n int) ([]models.AuditLog, error) {
	rows, err := s.repo.Recent(ctx, n)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent audit logs")
	}
	return rows, nil
}
