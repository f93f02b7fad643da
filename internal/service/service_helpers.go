package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"crm-api/internal/authz"
	"crm-api/internal/response"
	"crm-api/internal/search"
)

const dateLayout = "2006-01-02"

// searchLimit bounds the ids resolved from the search index for one list request
const searchLimit = 1000

// authorize returns a Forbidden AppError unless the principal may act on the resource
func authorize(p authz.Principal, action authz.Action, resource authz.Resource, record *authz.Record) error {
	if !authz.Can(p, action, resource, record) {
		return response.NewForbiddenError("You are not allowed to " + string(action) + " " + string(resource))
	}
	return nil
}

// repoError maps repository errors: AppErrors pass through, missing rows become NotFound,
// everything else is an internal DataAccessError.
func repoError(err error, notFound, failed string) error {
	if err == nil {
		return nil
	}
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFoundError(notFound, "")
	}
	return response.NewInternalError(failed, err)
}

// parseDate parses an ISO date. Nil or empty input yields nil.
func parseDate(field string, value *string) (*datatypes.Date, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, response.NewFieldValidationError([]response.FieldError{
			{Field: field, Message: "صيغة التاريخ غير صحيحة"},
		})
	}
	d := datatypes.Date(t)
	return &d, nil
}

func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format(dateLayout)
	return &s
}

// ownerOrActor defaults the owner of a new record to the creating user
func ownerOrActor(owner *uuid.UUID, p authz.Principal) *uuid.UUID {
	if owner != nil && *owner != uuid.Nil {
		return owner
	}
	if p.UserID == uuid.Nil {
		return nil
	}
	id := p.UserID
	return &id
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// searchIDs resolves q through the index. It returns nil when the SQL match should be used instead:
// q is empty, the index is unhealthy, or the query failed.
func searchIDs(ctx context.Context, idx search.Index, kind search.Kind, q string, logger *zap.Logger) []uuid.UUID {
	if q == "" || idx == nil || !idx.Healthy() {
		return nil
	}
	ids, err := idx.SearchIDs(ctx, kind, q, searchLimit)
	if err != nil {
		logger.Warn("Search index query failed, falling back to SQL match",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// loadOwned loads an owned record and authorizes action on it. A missing record is reported
// as NotFound only to principals whose role may perform the action at all.
func loadOwned[T authz.Owned](
	ctx context.Context,
	p authz.Principal,
	action authz.Action,
	resource authz.Resource,
	id uuid.UUID,
	find func(context.Context, uuid.UUID) (T, error),
	notFound string,
) (T, error) {
	var zero T
	if err := authorize(p, action, resource, nil); err != nil {
		return zero, err
	}
	record, err := find(ctx, id)
	if err != nil {
		return zero, repoError(err, notFound, "Failed to load "+string(resource))
	}
	if err := authorize(p, action, resource, authz.RecordOf(record)); err != nil {
		return zero, err
	}
	return record, nil
}
