package testutil

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// JobBuilder provides a fluent interface for building model.Job fixtures.
type JobBuilder struct {
	job model.Job
}

// NewJob starts a scheduled job with a fresh id and a customer label.
func NewJob() *JobBuilder {
	return &JobBuilder{job: model.Job{
		ID:           uuid.NewString(),
		Status:       model.JobStatusScheduled,
		CustomerName: "Test Customer",
	}}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithStatus sets the stored status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithWindow sets the job-level schedule. Either bound may be empty.
func (b *JobBuilder) WithWindow(start, end string) *JobBuilder {
	b.job.ScheduledStart = start
	b.job.ScheduledEnd = end
	return b
}

// WithPromise sets the promised date.
func (b *JobBuilder) WithPromise(date string) *JobBuilder {
	b.job.PromisedDate = date
	return b
}

// WithVendor sets the job vendor.
func (b *JobBuilder) WithVendor(vendorID string) *JobBuilder {
	b.job.VendorID = vendorID
	return b
}

// WithCoordinator sets the delivery coordinator.
func (b *JobBuilder) WithCoordinator(id string) *JobBuilder {
	b.job.DeliveryCoordinatorID = id
	return b
}

// WithCustomer sets the customer name and phone.
func (b *JobBuilder) WithCustomer(name, phone string) *JobBuilder {
	b.job.CustomerName = name
	b.job.CustomerPhone = phone
	return b
}

// WithTitle sets the title.
func (b *JobBuilder) WithTitle(title string) *JobBuilder {
	b.job.Title = title
	return b
}

// WithJobNumber sets the job number.
func (b *JobBuilder) WithJobNumber(n string) *JobBuilder {
	b.job.JobNumber = n
	return b
}

// WithVehicle attaches a vehicle.
func (b *JobBuilder) WithVehicle(year int, vehicleMake, vehicleModel string) *JobBuilder {
	b.job.Vehicle = &model.Vehicle{Year: year, Make: vehicleMake, Model: vehicleModel}
	return b
}

// WithPart appends a part.
func (b *JobBuilder) WithPart(part model.JobPart) *JobBuilder {
	if part.ID == "" {
		part.ID = uuid.NewString()
	}
	b.job.Parts = append(b.job.Parts, part)
	return b
}

// WithRaw sets the raw store record used by free-text search.
func (b *JobBuilder) WithRaw(raw string) *JobBuilder {
	b.job.Raw = json.RawMessage(raw)
	return b
}

// Build returns the job with display labels filled.
func (b *JobBuilder) Build() model.Job {
	job := b.job
	job.Parts = append([]model.JobPart(nil), b.job.Parts...)
	job.FillLabels()
	return job
}

// Part returns an in-house part with the given window.
func Part(name, start, end string) model.JobPart {
	return model.JobPart{Name: name, ScheduledStart: start, ScheduledEnd: end}
}

// OffSitePart returns an off-site part run by vendorID.
func OffSitePart(name, vendorID, start, end string) model.JobPart {
	return model.JobPart{Name: name, VendorID: vendorID, ScheduledStart: start, ScheduledEnd: end, IsOffSite: true}
}
