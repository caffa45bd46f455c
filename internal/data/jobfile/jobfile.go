// Package jobfile reads job exports from JSON files.
//
// Exports come from upstream tools that disagree on key style, so records may use
// snake_case or camelCase keys. Both are folded into the canonical model.Job here and
// nowhere else.
package jobfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "jobfile.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ErrInvalidFile reports a document that does not match the job export schema.
var ErrInvalidFile = errors.New("invalid job file")

// Validate checks data against the embedded job export schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return nil
}

// Load reads, validates and decodes the file at path.
func Load(path string) ([]model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode folds a job export into canonical jobs. The document is either an array of job
// records or an object with a "jobs" array. Each job keeps its original record in Raw.
func Decode(data []byte) ([]model.Job, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	var records []any
	switch v := doc.(type) {
	case []any:
		records = v
	case map[string]any:
		list, ok := v["jobs"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected a \"jobs\" array", ErrInvalidFile)
		}
		records = list
	default:
		return nil, fmt.Errorf("%w: expected an array or an object", ErrInvalidFile)
	}

	jobs := make([]model.Job, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is not an object", ErrInvalidFile, i)
		}
		job, err := decodeJob(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFile, i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func decodeJob(rec record) (model.Job, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return model.Job{}, err
	}

	var status model.JobStatus
	if err := status.UnmarshalText([]byte(rec.text("status"))); err != nil {
		return model.Job{}, err
	}

	job := model.Job{
		ID:                    rec.text("id"),
		Status:                status,
		ScheduledStart:        rec.text("scheduled_start"),
		ScheduledEnd:          rec.text("scheduled_end"),
		PromisedDate:          rec.text("promised_date"),
		VendorID:              rec.text("vendor_id"),
		DeliveryCoordinatorID: rec.text("delivery_coordinator_id"),
		AssignedTo:            rec.text("assigned_to"),
		JobNumber:             rec.text("job_number"),
		Title:                 rec.text("title"),
		Description:           rec.text("description"),
		VehicleDescription:    rec.text("vehicle_description"),
		CustomerName:          rec.text("customer_name"),
		CustomerPhone:         rec.text("customer_phone"),
		StockNumber:           rec.text("stock_number"),
		CustomerLabel:         rec.text("customer_label"),
		VehicleLabel:          rec.text("vehicle_label"),
		Vehicle:               decodeVehicle(rec.object("vehicle")),
		Raw:                   raw,
	}
	if job.ID == "" {
		return model.Job{}, errors.New("missing id")
	}

	for _, key := range []string{"parts", "job_parts"} {
		for i, p := range rec.list(key) {
			prec, ok := p.(map[string]any)
			if !ok {
				return model.Job{}, fmt.Errorf("part %d is not an object", i)
			}
			job.Parts = append(job.Parts, decodePart(prec))
		}
	}
	job.FillLabels()
	return job, nil
}

func decodePart(rec record) model.JobPart {
	return model.JobPart{
		ID:             rec.text("id"),
		Name:           rec.text("name"),
		VendorID:       rec.text("vendor_id"),
		ScheduledStart: rec.text("scheduled_start"),
		ScheduledEnd:   rec.text("scheduled_end"),
		PromisedDate:   rec.text("promised_date"),
		IsOffSite:      rec.flag("is_off_site"),
	}
}

func decodeVehicle(rec record) *model.Vehicle {
	if rec == nil {
		return nil
	}
	v := &model.Vehicle{
		Description: rec.text("description"),
		StockNumber: rec.text("stock_number"),
		VIN:         rec.text("vin"),
		Make:        rec.text("make"),
		Model:       rec.text("model"),
		OwnerName:   rec.text("owner_name"),
		OwnerPhone:  rec.text("owner_phone"),
	}
	if year, err := strconv.Atoi(rec.text("year")); err == nil {
		v.Year = year
	}
	return v
}

// record is one decoded JSON object. Lookups take the snake_case name and also try the
// camelCase spelling.
type record map[string]any

func (r record) lookup(snake string) (any, bool) {
	if v, ok := r[snake]; ok && v != nil {
		return v, true
	}
	if v, ok := r[camelCase(snake)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func (r record) text(snake string) string {
	v, ok := r.lookup(snake)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (r record) flag(snake string) bool {
	v, ok := r.lookup(snake)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

func (r record) object(snake string) record {
	v, ok := r.lookup(snake)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func (r record) list(snake string) []any {
	v, ok := r.lookup(snake)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

func camelCase(snake string) string {
	var b strings.Builder
	upper := false
	for _, r := range snake {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
