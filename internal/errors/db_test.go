package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique violation from detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (job_number)=(JOB-1) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "job_number",
		},
		{
			name: "foreign key violation",
			err: &pgconn.PgError{
				Code:       pgerrcode.ForeignKeyViolation,
				TableName:  "job_parts",
				ColumnName: "job_id",
			},
			wantCode:  ErrCodeValidation,
			wantField: "job_id",
		},
		{
			name: "status check constraint",
			err: &pgconn.PgError{
				Code:           pgerrcode.CheckViolation,
				TableName:      "jobs",
				ConstraintName: "jobs_status_check",
			},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{
			name: "check constraint without table",
			err: &pgconn.PgError{
				Code:           pgerrcode.CheckViolation,
				ConstraintName: "window_order_check",
			},
			wantCode: ErrCodeValidation,
		},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "status"},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{
			name:     "malformed uuid",
			err:      &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "statement timeout",
			err:      &pgconn.PgError{Code: pgerrcode.QueryCanceled},
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "connection failure",
			err:      &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "other postgres error",
			err:      &pgconn.PgError{Code: pgerrcode.DivisionByZero},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Fatalf("MapDBError() code = %q, want %q", GetCode(err), tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("MapDBError() should wrap the original error")
			}
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	orig := errors.New("boom")
	if err := MapDBError(orig); err != orig {
		t.Errorf("MapDBError() = %v, want original error", err)
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("row locked")
	err := Wrapf(cause, ErrCodeConflict, "update job %s", "j1")

	if err.Error() != "update job j1: row locked" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsConflict(err) || !errors.Is(err, cause) {
		t.Errorf("wrapped error lost its code or cause")
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil || Wrapf(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("wrapping nil should return nil")
	}

	wrapped := fmt.Errorf("service: %w", NotFoundf("job %q not found", "j2"))
	if !IsNotFound(wrapped) || GetCode(wrapped) != ErrCodeNotFound {
		t.Errorf("code should survive fmt wrapping")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Errorf("plain errors have no code")
	}
	if f := GetField(ValidationField("range", "invalid range")); f != "range" {
		t.Errorf("unexpected field %q", f)
	}
	if !IsValidation(Validationf("bad %s", "input")) || !IsUnavailable(Wrap(cause, ErrCodeUnavailable, "down")) {
		t.Errorf("predicates disagree with constructors")
	}
	if Conflictf("%d%% booked", 50).Message != "50% booked" || NotFoundf("job").Message != "job" {
		t.Errorf("formatting mismatch")
	}
}
