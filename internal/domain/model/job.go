// Package model defines the canonical record shapes shared by the agenda engine, the data layer and the transports.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the stored status of a dealership job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusDraft indicates the deal has not been submitted yet.
	JobStatusDraft JobStatus = "draft"
	// JobStatusPending indicates the job is waiting for scheduling.
	JobStatusPending JobStatus = "pending"
	// JobStatusScheduled indicates the job has a committed appointment.
	JobStatusScheduled JobStatus = "scheduled"
	// JobStatusBooked indicates the vendor confirmed the appointment.
	JobStatusBooked JobStatus = "booked"
	// JobStatusPromised indicates a promise date was given without a time window.
	JobStatusPromised JobStatus = "promised"
	// JobStatusInProgress indicates work has started.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusQualityCheck indicates the job was reopened for inspection.
	JobStatusQualityCheck JobStatus = "quality_check"
	// JobStatusCompleted indicates the work is finished.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates the job will not be worked.
	JobStatusCancelled JobStatus = "cancelled"
)

// AllJobStatuses lists every stored status in lifecycle order.
func AllJobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusDraft,
		JobStatusPending,
		JobStatusScheduled,
		JobStatusBooked,
		JobStatusPromised,
		JobStatusInProgress,
		JobStatusQualityCheck,
		JobStatusCompleted,
		JobStatusCancelled,
	}
}

// Valid returns true if the JobStatus is part of the enumeration.
func (s JobStatus) Valid() bool {
	for _, v := range AllJobStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler for JobStatus. An empty value stays unset.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		*s = ""
		return nil
	}
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Vehicle is the nested vehicle record attached to a job.
type Vehicle struct {
	Description string `json:"description,omitempty"`
	StockNumber string `json:"stock_number,omitempty"`
	VIN         string `json:"vin,omitempty"`
	Year        int    `json:"year,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerPhone  string `json:"owner_phone,omitempty"`
}

// Label returns a "year make model" label, or the description when those are missing.
func (v *Vehicle) Label() string {
	if v == nil {
		return ""
	}
	var parts []string
	if v.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", v.Year))
	}
	for _, s := range []string{v.Make, v.Model} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(v.Description)
	}
	return strings.Join(parts, " ")
}

// JobPart is a line item of a job. It may carry its own schedule and vendor.
//
// Schedule values are kept as delivered by the store: a date-only "YYYY-MM-DD" value or an
// RFC3339 timestamp. Empty means absent.
type JobPart struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	VendorID       string `json:"vendor_id,omitempty"`
	ScheduledStart string `json:"scheduled_start,omitempty"`
	ScheduledEnd   string `json:"scheduled_end,omitempty"`
	PromisedDate   string `json:"promised_date,omitempty"`
	IsOffSite      bool   `json:"is_off_site"`
}

// Job is the canonical job record consumed by the agenda engine.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`

	ScheduledStart string `json:"scheduled_start,omitempty"`
	ScheduledEnd   string `json:"scheduled_end,omitempty"`
	PromisedDate   string `json:"promised_date,omitempty"`

	VendorID              string `json:"vendor_id,omitempty"`
	DeliveryCoordinatorID string `json:"delivery_coordinator_id,omitempty"`
	AssignedTo            string `json:"assigned_to,omitempty"`

	JobNumber          string `json:"job_number,omitempty"`
	Title              string `json:"title,omitempty"`
	Description        string `json:"description,omitempty"`
	VehicleDescription string `json:"vehicle_description,omitempty"`
	CustomerName       string `json:"customer_name,omitempty"`
	CustomerPhone      string `json:"customer_phone,omitempty"`
	StockNumber        string `json:"stock_number,omitempty"`

	Vehicle *Vehicle  `json:"vehicle,omitempty"`
	Parts   []JobPart `json:"parts,omitempty"`

	// Raw is the record as delivered by the store, kept for search.
	Raw json.RawMessage `json:"raw,omitempty"`

	CustomerLabel string `json:"customer_label,omitempty"`
	VehicleLabel  string `json:"vehicle_label,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AssigneeID returns the identifier used for "assigned to me" filtering.
func (j *Job) AssigneeID() string {
	if j.DeliveryCoordinatorID != "" {
		return j.DeliveryCoordinatorID
	}
	return j.AssignedTo
}

// FillLabels computes the display labels that the store did not provide.
func (j *Job) FillLabels() {
	if strings.TrimSpace(j.CustomerLabel) == "" {
		j.CustomerLabel = strings.TrimSpace(j.CustomerName)
	}
	if strings.TrimSpace(j.VehicleLabel) == "" {
		if label := j.Vehicle.Label(); label != "" {
			j.VehicleLabel = label
		} else {
			j.VehicleLabel = strings.TrimSpace(j.VehicleDescription)
		}
	}
}

// JobListOptions groups the coarse prefetch parameters for a job source.
// The source may over-fetch; exact matching is done by the agenda engine.
type JobListOptions struct {
	From     time.Time   // Inclusive lower bound of the window of interest
	To       time.Time   // Exclusive upper bound of the window of interest
	Statuses []JobStatus // Optional status scope
	Limit    int         // Maximum number of jobs (0 = source default)
}

// StatusUpdate is a request to the status-mutation sink.
type StatusUpdate struct {
	JobID  string
	Status JobStatus
	Extra  map[string]any
}

// StatusChange describes a status transition that was applied through the sink.
type StatusChange struct {
	JobID  string    `json:"job_id"`
	Action string    `json:"action"`
	From   JobStatus `json:"from"`
	To     JobStatus `json:"to"`
	Job    *Job      `json:"job,omitempty"`
}
