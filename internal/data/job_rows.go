package data

import (
	"encoding/json"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// jobRow is one row of jobColumns. Vehicle columns come from a LEFT JOIN and are all
// NULL when the job has no vehicle.
type jobRow struct {
	ID                    string     `db:"id"`
	JobNumber             *string    `db:"job_number"`
	Status                string     `db:"status"`
	Title                 string     `db:"title"`
	Description           string     `db:"description"`
	VehicleDescription    string     `db:"vehicle_description"`
	CustomerName          string     `db:"customer_name"`
	CustomerPhone         string     `db:"customer_phone"`
	StockNumber           string     `db:"stock_number"`
	ScheduledStart        *time.Time `db:"scheduled_start"`
	ScheduledEnd          *time.Time `db:"scheduled_end"`
	PromisedDate          *time.Time `db:"promised_date"`
	VendorID              *string    `db:"vendor_id"`
	DeliveryCoordinatorID *string    `db:"delivery_coordinator_id"`
	AssignedTo            *string    `db:"assigned_to"`
	Attributes            []byte     `db:"attributes"`
	CompletedAt           *time.Time `db:"completed_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`

	VehicleID          *string `db:"vehicle_id"`
	VehicleVIN         *string `db:"vehicle_vin"`
	VehicleStockNumber *string `db:"vehicle_stock_number"`
	VehicleYear        *int32  `db:"vehicle_year"`
	VehicleMake        *string `db:"vehicle_make"`
	VehicleModel       *string `db:"vehicle_model"`
	VehicleDesc        *string `db:"vehicle_desc"`
	VehicleOwnerName   *string `db:"vehicle_owner_name"`
	VehicleOwnerPhone  *string `db:"vehicle_owner_phone"`
}

type partRow struct {
	ID             string     `db:"id"`
	JobID          string     `db:"job_id"`
	Name           string     `db:"name"`
	VendorID       *string    `db:"vendor_id"`
	ScheduledStart *time.Time `db:"scheduled_start"`
	ScheduledEnd   *time.Time `db:"scheduled_end"`
	PromisedDate   *time.Time `db:"promised_date"`
	IsOffSite      bool       `db:"is_off_site"`
}

func (r *jobRow) toModel() model.Job {
	job := model.Job{
		ID:                    r.ID,
		Status:                model.JobStatus(r.Status),
		ScheduledStart:        timestampText(r.ScheduledStart),
		ScheduledEnd:          timestampText(r.ScheduledEnd),
		PromisedDate:          dateText(r.PromisedDate),
		VendorID:              deref(r.VendorID),
		DeliveryCoordinatorID: deref(r.DeliveryCoordinatorID),
		AssignedTo:            deref(r.AssignedTo),
		JobNumber:             deref(r.JobNumber),
		Title:                 r.Title,
		Description:           r.Description,
		VehicleDescription:    r.VehicleDescription,
		CustomerName:          r.CustomerName,
		CustomerPhone:         r.CustomerPhone,
		StockNumber:           r.StockNumber,
		CompletedAt:           r.CompletedAt,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if len(r.Attributes) > 0 && json.Valid(r.Attributes) {
		job.Raw = json.RawMessage(r.Attributes)
	}
	if r.VehicleID != nil {
		job.Vehicle = &model.Vehicle{
			Description: deref(r.VehicleDesc),
			StockNumber: deref(r.VehicleStockNumber),
			VIN:         deref(r.VehicleVIN),
			Make:        deref(r.VehicleMake),
			Model:       deref(r.VehicleModel),
			OwnerName:   deref(r.VehicleOwnerName),
			OwnerPhone:  deref(r.VehicleOwnerPhone),
		}
		if r.VehicleYear != nil {
			job.Vehicle.Year = int(*r.VehicleYear)
		}
	}
	job.FillLabels()
	return job
}

func (r *partRow) toModel() model.JobPart {
	return model.JobPart{
		ID:             r.ID,
		Name:           r.Name,
		VendorID:       deref(r.VendorID),
		ScheduledStart: timestampText(r.ScheduledStart),
		ScheduledEnd:   timestampText(r.ScheduledEnd),
		PromisedDate:   dateText(r.PromisedDate),
		IsOffSite:      r.IsOffSite,
	}
}

// attachParts assigns parts to their jobs, keeping the query order within each job.
func attachParts(jobs []model.Job, parts []partRow) {
	index := make(map[string]int, len(jobs))
	for i := range jobs {
		index[jobs[i].ID] = i
	}
	for i := range parts {
		if at, ok := index[parts[i].JobID]; ok {
			jobs[at].Parts = append(jobs[at].Parts, parts[i].toModel())
		}
	}
}

// timestampText renders a stored instant in UTC. Date-only schedule values are stored as
// midnight UTC and keep that form so the agenda reads them as whole days.
func timestampText(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func dateText(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
