package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dealerops/agenda-api/internal/data/pgxutil"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

const insertVehicleQuery = `
INSERT INTO vehicles (vin, stock_number, year, make, model, description, owner_name, owner_phone)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

const insertJobQuery = `
INSERT INTO jobs (
  job_number, status, title, description, vehicle_description, customer_name, customer_phone,
  stock_number, scheduled_start, scheduled_end, promised_date, vendor_id, delivery_coordinator_id,
  assigned_to, vehicle_id, attributes, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
RETURNING id`

const insertPartQuery = `
INSERT INTO job_parts (job_id, position, name, vendor_id, scheduled_start, scheduled_end, promised_date, is_off_site)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Insert stores job with its vehicle and parts and returns the stored record.
// Schedule values are stored as instants; date-only values become midnight UTC.
func (r *JobRepo) Insert(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	if !job.Status.Valid() {
		return nil, apperrors.Wrapf(ErrInvalidStatus, apperrors.ErrCodeValidation, "status %q", job.Status)
	}
	args, err := jobInsertArgs(job, r.timeProvider.Now().UTC())
	if err != nil {
		return nil, err
	}

	var out *model.Job
	err = pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if job.Vehicle != nil {
				v := job.Vehicle
				var vehicleID string
				if err := tx.QueryRow(ctx, insertVehicleQuery,
					nullable(v.VIN), nullable(v.StockNumber), nullableInt(v.Year), nullable(v.Make),
					nullable(v.Model), nullable(v.Description), nullable(v.OwnerName), nullable(v.OwnerPhone),
				).Scan(&vehicleID); err != nil {
					return fmt.Errorf("insert vehicle: %w", err)
				}
				args[14] = vehicleID
			}

			var id string
			if err := tx.QueryRow(ctx, insertJobQuery, args...).Scan(&id); err != nil {
				return fmt.Errorf("insert job: %w", err)
			}

			for i, p := range job.Parts {
				pargs, err := partInsertArgs(id, i, p)
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, insertPartQuery, pargs...); err != nil {
					return fmt.Errorf("insert part %d: %w", i, err)
				}
			}

			var err error
			out, err = getJob(ctx, tx, id)
			return err
		},
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

func jobInsertArgs(job model.Job, now time.Time) ([]any, error) {
	start, err := scheduleValue("scheduled_start", job.ScheduledStart)
	if err != nil {
		return nil, err
	}
	end, err := scheduleValue("scheduled_end", job.ScheduledEnd)
	if err != nil {
		return nil, err
	}
	promised, err := dateValue("promised_date", job.PromisedDate)
	if err != nil {
		return nil, err
	}
	attrs := []byte("{}")
	if len(job.Raw) > 0 {
		if !json.Valid(job.Raw) {
			return nil, apperrors.ValidationField("raw", "raw must be a JSON object")
		}
		attrs = job.Raw
	}
	return []any{
		nullable(job.JobNumber), string(job.Status), job.Title, job.Description, job.VehicleDescription,
		job.CustomerName, job.CustomerPhone, job.StockNumber, start, end, promised,
		nullable(job.VendorID), nullable(job.DeliveryCoordinatorID), nullable(job.AssignedTo),
		nil, attrs, now,
	}, nil
}

func partInsertArgs(jobID string, position int, p model.JobPart) ([]any, error) {
	field := fmt.Sprintf("parts[%d].", position)
	start, err := scheduleValue(field+"scheduled_start", p.ScheduledStart)
	if err != nil {
		return nil, err
	}
	end, err := scheduleValue(field+"scheduled_end", p.ScheduledEnd)
	if err != nil {
		return nil, err
	}
	promised, err := dateValue(field+"promised_date", p.PromisedDate)
	if err != nil {
		return nil, err
	}
	return []any{jobID, position, p.Name, nullable(p.VendorID), start, end, promised, p.IsOffSite}, nil
}

// scheduleValue converts a schedule string into a storable instant.
func scheduleValue(field, value string) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, apperrors.ValidationField(field, "must be YYYY-MM-DD or an RFC3339 timestamp")
	}
	utc := t.UTC()
	return &utc, nil
}

func dateValue(field, value string) (*time.Time, error) {
	t, err := scheduleValue(field, value)
	if err != nil || t == nil {
		return t, err
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
