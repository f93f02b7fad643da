package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"crm-api/internal/response"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"}, response.ErrCodeAlreadyExists},
		{"wrapped fk violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), response.ErrCodeValidation},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, response.ErrCodeAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var appErr *response.AppError
			assert.True(t, errors.As(mapDBError(tt.err), &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}

	assert.Nil(t, mapDBError(nil))
	assert.Equal(t, gorm.ErrRecordNotFound, mapDBError(gorm.ErrRecordNotFound))
	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), mapDBError(other))
}
