// Package devseed loads a small dealership workload for local development.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

// Inserter stores one job with its vehicle and parts.
type Inserter interface {
	Insert(ctx context.Context, job model.Job) (*model.Job, error)
}

// Result summarizes a seeding run.
type Result struct {
	Inserted int
	Skipped  int
}

// Run inserts jobs in order. A job that already exists (same job number or VIN) is skipped,
// so seeding twice is harmless.
func Run(ctx context.Context, repo Inserter, jobs []model.Job, logger *slog.Logger) (Result, error) {
	if repo == nil {
		return Result{}, errors.New("devseed: repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for i := range jobs {
		job := jobs[i]
		stored, err := repo.Insert(ctx, job)
		switch {
		case err == nil:
			res.Inserted++
			logger.DebugContext(ctx, "seeded job", "job_id", stored.ID, "job_number", job.JobNumber)
		case apperrors.IsConflict(err):
			res.Skipped++
			logger.DebugContext(ctx, "job already seeded", "job_number", job.JobNumber)
		default:
			return res, fmt.Errorf("seed job %s: %w", job.JobNumber, err)
		}
	}

	logger.InfoContext(ctx, "development seed complete", "inserted", res.Inserted, "skipped", res.Skipped)
	return res, nil
}

// SampleJobs returns a workload anchored on now's calendar day in cal's zone: yesterday's
// overdue work, two overlapping bookings on one vendor today, an off-site part, an all-day
// promise and jobs later in the week.
func SampleJobs(cal *agenda.Calendar, now time.Time) []model.Job {
	day := cal.StartOfDay(now)
	at := func(offsetDays, hour, minute int) string {
		d := day.AddDate(0, 0, offsetDays)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, cal.Location()).UTC().Format(time.RFC3339)
	}
	date := func(offsetDays int) string {
		return day.AddDate(0, 0, offsetDays).Format(time.DateOnly)
	}

	return []model.Job{
		{
			JobNumber:             "DEV-1001",
			Status:                model.JobStatusScheduled,
			Title:                 "Window tint",
			CustomerName:          "Ana Ortiz",
			CustomerPhone:         "555-0101",
			VendorID:              "vendor-tint",
			DeliveryCoordinatorID: "dc-alex",
			ScheduledStart:        at(-1, 9, 0),
			ScheduledEnd:          at(-1, 11, 0),
			Vehicle: &model.Vehicle{
				VIN: "1HGCM82633A000001", StockNumber: "S1001", Year: 2024, Make: "Honda", Model: "Accord",
			},
		},
		{
			JobNumber:             "DEV-1002",
			Status:                model.JobStatusBooked,
			Title:                 "Ceramic coating",
			CustomerName:          "Ben Carter",
			CustomerPhone:         "555-0102",
			VendorID:              "vendor-detail",
			DeliveryCoordinatorID: "dc-alex",
			ScheduledStart:        at(0, 9, 0),
			ScheduledEnd:          at(0, 12, 0),
			Vehicle: &model.Vehicle{
				VIN: "5YJ3E1EA7KF000002", StockNumber: "S1002", Year: 2023, Make: "Tesla", Model: "Model 3",
			},
		},
		{
			JobNumber:             "DEV-1003",
			Status:                model.JobStatusScheduled,
			Title:                 "Interior detail",
			CustomerName:          "Chloe Diaz",
			DeliveryCoordinatorID: "dc-sam",
			Vehicle: &model.Vehicle{
				VIN: "JTDKN3DU0A0000003", StockNumber: "S1003", Year: 2022, Make: "Toyota", Model: "Prius",
			},
			Parts: []model.JobPart{
				{Name: "Shampoo", VendorID: "vendor-detail", ScheduledStart: at(0, 11, 0), ScheduledEnd: at(0, 13, 0)},
			},
		},
		{
			JobNumber:             "DEV-1004",
			Status:                model.JobStatusScheduled,
			Title:                 "Wheel repair",
			CustomerName:          "Dev Patel",
			VendorID:              "vendor-wheels",
			DeliveryCoordinatorID: "dc-sam",
			Vehicle: &model.Vehicle{
				VIN: "WBA8E9G50GN000004", StockNumber: "S1004", Year: 2021, Make: "BMW", Model: "330i",
			},
			Parts: []model.JobPart{
				{Name: "Rim refinish", ScheduledStart: at(1, 8, 0), ScheduledEnd: at(1, 16, 0), IsOffSite: true},
			},
		},
		{
			JobNumber:             "DEV-1005",
			Status:                model.JobStatusPending,
			Title:                 "Accessory install",
			CustomerName:          "Erin Brooks",
			DeliveryCoordinatorID: "dc-alex",
			PromisedDate:          date(2),
			Vehicle: &model.Vehicle{
				VIN: "1FTFW1E50NF000005", StockNumber: "S1005", Year: 2022, Make: "Ford", Model: "F-150",
			},
		},
		{
			JobNumber:             "DEV-1006",
			Status:                model.JobStatusCompleted,
			Title:                 "Paint protection film",
			CustomerName:          "Farah Khan",
			VendorID:              "vendor-ppf",
			DeliveryCoordinatorID: "dc-sam",
			ScheduledStart:        at(0, 14, 0),
			ScheduledEnd:          at(0, 17, 0),
			Vehicle: &model.Vehicle{
				VIN: "KM8J3CA46LU000006", StockNumber: "S1006", Year: 2020, Make: "Hyundai", Model: "Tucson",
			},
		},
		{
			JobNumber:             "DEV-1007",
			Status:                model.JobStatusBooked,
			Title:                 "Remote start",
			CustomerName:          "Gus Miller",
			VendorID:              "vendor-electronics",
			DeliveryCoordinatorID: "dc-alex",
			ScheduledStart:        at(5, 10, 0),
			ScheduledEnd:          at(5, 12, 0),
			Vehicle: &model.Vehicle{
				VIN: "3GNAXUEV1LS000007", StockNumber: "S1007", Year: 2020, Make: "Chevrolet", Model: "Equinox",
			},
		},
	}
}
