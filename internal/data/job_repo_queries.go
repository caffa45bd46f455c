package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

const jobColumns = `
  j.id,
  j.job_number,
  j.status,
  j.title,
  j.description,
  j.vehicle_description,
  j.customer_name,
  j.customer_phone,
  j.stock_number,
  j.scheduled_start,
  j.scheduled_end,
  j.promised_date,
  j.vendor_id,
  j.delivery_coordinator_id,
  j.assigned_to,
  j.attributes,
  j.completed_at,
  j.created_at,
  j.updated_at,
  v.id AS vehicle_id,
  v.vin AS vehicle_vin,
  v.stock_number AS vehicle_stock_number,
  v.year AS vehicle_year,
  v.make AS vehicle_make,
  v.model AS vehicle_model,
  v.description AS vehicle_desc,
  v.owner_name AS vehicle_owner_name,
  v.owner_phone AS vehicle_owner_phone
`

const jobFrom = `FROM jobs j LEFT JOIN vehicles v ON v.id = j.vehicle_id`

const partsByJobIDsQuery = `
SELECT id, job_id, name, vendor_id, scheduled_start, scheduled_end, promised_date, is_off_site
FROM job_parts
WHERE job_id = ANY($1::text[]::uuid[])
ORDER BY job_id, position, created_at, id`

const updateJobStatusQuery = `
UPDATE jobs
SET status = $2::text,
    completed_at = CASE WHEN $2::text = 'completed' THEN COALESCE($3::timestamptz, $4::timestamptz) ELSE NULL END,
    attributes = attributes || $5::jsonb,
    updated_at = $4::timestamptz
WHERE id = $1::uuid
RETURNING id`

// prefetchSlack widens fetch windows so zone offsets never drop a job at the edges.
// The agenda engine does the exact matching afterwards.
const prefetchSlack = 24 * time.Hour

// queryBuilder accumulates WHERE conditions with positional arguments.
type queryBuilder struct {
	conds []string
	args  []any
}

// arg registers v and returns its placeholder.
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// windowCondition matches a start/end column pair or promised date touching [from, to).
// LEAST and GREATEST skip NULLs, so one-sided windows behave as points and inverted
// windows still match.
func windowCondition(alias, from, to string) string {
	return fmt.Sprintf(`(
    (LEAST(%[1]s.scheduled_start, %[1]s.scheduled_end) < %[3]s::timestamptz
      AND GREATEST(%[1]s.scheduled_start, %[1]s.scheduled_end) >= %[2]s::timestamptz)
    OR (%[1]s.promised_date >= (%[2]s::timestamptz)::date
      AND %[1]s.promised_date < (%[3]s::timestamptz)::date)
  )`, alias, from, to)
}

// buildListJobsQuery renders the prefetch query for opts.
func buildListJobsQuery(opts model.JobListOptions, limit int) (string, []any) {
	var b queryBuilder

	if !opts.From.IsZero() && !opts.To.IsZero() {
		from := b.arg(opts.From.Add(-prefetchSlack).UTC())
		to := b.arg(opts.To.Add(prefetchSlack).UTC())
		b.where(fmt.Sprintf(`(%s OR EXISTS (
  SELECT 1 FROM job_parts p WHERE p.job_id = j.id AND %s
))`, windowCondition("j", from, to), windowCondition("p", from, to)))
	}

	if len(opts.Statuses) > 0 {
		statuses := make([]string, 0, len(opts.Statuses))
		for _, s := range opts.Statuses {
			statuses = append(statuses, string(s))
		}
		b.where("j.status = ANY(" + b.arg(statuses) + "::text[])")
	}

	query := "SELECT " + jobColumns + jobFrom + b.whereClause() +
		"\nORDER BY j.scheduled_start NULLS LAST, j.created_at, j.id\nLIMIT " + b.arg(limit)
	return query, b.args
}

func buildGetJobQuery(id string) (string, []any) {
	var b queryBuilder
	b.where("j.id = " + b.arg(id) + "::uuid")
	return "SELECT " + jobColumns + jobFrom + b.whereClause(), b.args
}
