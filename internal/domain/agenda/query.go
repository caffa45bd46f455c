package agenda

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// SearchPath is a compiled JMESPath expression evaluated against a job's raw record to
// contribute extra searchable text.
type SearchPath struct {
	Expr   string
	search func(data any) (any, error)
}

// CompileSearchPath compiles expr. An invalid expression is a configuration error.
func CompileSearchPath(expr string) (SearchPath, error) {
	expr = strings.TrimSpace(expr)
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return SearchPath{}, fmt.Errorf("compile search path %q: %w", expr, err)
	}
	return SearchPath{
		Expr:   expr,
		search: func(data any) (any, error) { return compiled.Search(data) },
	}, nil
}

// CompileSearchPaths compiles every expression, skipping blanks.
func CompileSearchPaths(exprs []string) ([]SearchPath, error) {
	paths := make([]SearchPath, 0, len(exprs))
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		p, err := CompileSearchPath(e)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Searchable raw keys. Both spellings are read because stores deliver either.
var (
	rawJobKeys = []string{
		"job_number", "jobNumber",
		"title",
		"description",
		"vehicle_description", "vehicleDescription",
		"customer_name", "customerName",
		"customer_phone", "customerPhone",
		"stock_number", "stockNumber",
	}
	rawVehicleKeys = []string{
		"description",
		"stock_number", "stockNumber",
		"vin",
		"year",
		"make",
		"model",
		"owner_name", "ownerName",
		"owner_phone", "ownerPhone",
	}
)

// Matches reports whether job contains query as a case-insensitive substring of its
// searchable text. A blank query matches every job.
func Matches(job *model.Job, query string, paths ...SearchPath) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(haystack(job, paths), q)
}

func haystack(job *model.Job, paths []SearchPath) string {
	var b strings.Builder
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(s))
	}

	for _, s := range []string{
		job.JobNumber, job.Title, job.Description, job.VehicleDescription,
		job.CustomerName, job.CustomerPhone, job.StockNumber,
		job.CustomerLabel, job.VehicleLabel,
	} {
		add(s)
	}
	if v := job.Vehicle; v != nil {
		for _, s := range []string{v.Description, v.StockNumber, v.VIN, v.Make, v.Model, v.OwnerName, v.OwnerPhone, v.Label()} {
			add(s)
		}
		if v.Year > 0 {
			add(strconv.Itoa(v.Year))
		}
	}

	raw := decodeRaw(job.Raw)
	if raw == nil {
		return b.String()
	}
	for _, k := range rawJobKeys {
		add(scalarText(raw[k]))
	}
	if vehicle, ok := raw["vehicle"].(map[string]any); ok {
		for _, k := range rawVehicleKeys {
			add(scalarText(vehicle[k]))
		}
	}
	for _, p := range paths {
		if p.search == nil {
			continue
		}
		res, err := p.search(raw)
		if err != nil {
			continue
		}
		addResult(add, res)
	}
	return b.String()
}

func decodeRaw(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func addResult(add func(string), v any) {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			add(scalarText(item))
		}
		return
	}
	add(scalarText(v))
}

// scalarText renders strings and numbers; null, booleans and containers yield "".
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
