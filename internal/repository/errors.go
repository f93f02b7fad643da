package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"crm-api/internal/response"
)

var (
	// ErrStageNotInPipeline is returned when a move targets a stage of another pipeline
	ErrStageNotInPipeline = errors.New("target stage does not belong to the opportunity's pipeline")
	// ErrLeadAlreadyConverted is returned when converting a lead twice
	ErrLeadAlreadyConverted = errors.New("lead already converted")
	// ErrLeadMissingCompany is returned when a new client is requested for a lead without a company
	ErrLeadMissingCompany = errors.New("lead has no company to create a client from")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapDBError turns constraint violations into AppErrors. Other errors pass through unchanged.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return response.NewConflictError("Record already exists", pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return response.NewValidationError("Referenced record does not exist", pgErr.ConstraintName)
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return response.NewConflictError("Record already exists", err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return response.NewValidationError("Referenced record does not exist", err.Error())
	}
	return err
}
