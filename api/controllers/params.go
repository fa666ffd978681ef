package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/api/middleware"
	"github.com/eventloom/finance-backend/api/validators"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

func operatorFrom(r *http.Request) (uuid.UUID, error) {
	id := middleware.OperatorIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	return id, nil
}

func pageFrom(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}

// enumQuery parses an optional enum filter with the package's Parse func.
func enumQuery[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(strings.ToUpper(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return &value, nil
}

// enumField parses a required enum carried in a request body.
func enumField[T any](raw, field string, parse func(string) (T, error)) (T, error) {
	value, err := parse(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		var zero T
		return zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return value, nil
}
