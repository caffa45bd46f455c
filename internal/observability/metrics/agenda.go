// Package metrics holds the metric emitters for agenda queries, status transitions and
// cache warming.
package metrics

import (
	"maps"
	"strconv"
	"time"

	obserrors "github.com/dealerops/agenda-api/internal/observability/errors"
	"github.com/dealerops/agenda-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Sources of the job list behind an agenda query.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// AgendaMetric describes one agenda query.
type AgendaMetric struct {
	Operation string // "agenda", "conflicts" or "export"
	Range     string
	Source    string
	Result    string
	Fetched   int
	Items     int
	Conflicts int
	Duration  time.Duration
	Err       error
}

// EmitAgendaQuery records an agenda query.
func EmitAgendaQuery(sink statsd.Sink, in AgendaMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"operation": in.Operation,
		"range":     rangeTag(in.Range),
		"result":    in.Result,
	}
	if in.Source != "" {
		tags["source"] = in.Source
	}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count("agenda.query", 1, tags)
	if in.Duration > 0 {
		sink.Timing("agenda.query.duration", in.Duration, CloneTags(tags))
	}
	if in.Result == ResultSuccess {
		sink.Gauge("agenda.query.fetched", float64(in.Fetched), CloneTags(tags))
		sink.Gauge("agenda.query.items", float64(in.Items), CloneTags(tags))
		sink.Gauge("agenda.query.conflicts", float64(in.Conflicts), CloneTags(tags))
	}
}

// TransitionMetric describes one status action.
type TransitionMetric struct {
	Action string
	From   string
	To     string
	Result string
	Err    error
}

// EmitStatusTransition records a status action and its outcome.
func EmitStatusTransition(sink statsd.Sink, in TransitionMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"action": in.Action,
		"result": in.Result,
	}
	if in.From != "" {
		tags["from"] = in.From
	}
	if in.To != "" {
		tags["to"] = in.To
	}
	addErrorClass(tags, in.Result, in.Err)
	sink.Count("job.transition", 1, tags)
}

// WarmMetric describes one warm-up of a named range.
type WarmMetric struct {
	Range    string
	Result   string
	Jobs     int
	Duration time.Duration
	Err      error
}

// EmitWarm records a cache warm-up.
func EmitWarm(sink statsd.Sink, in WarmMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"range":  rangeTag(in.Range),
		"result": in.Result,
	}
	addErrorClass(tags, in.Result, in.Err)
	sink.Count("agenda.warm", 1, tags)
	if in.Duration > 0 {
		sink.Timing("agenda.warm.duration", in.Duration, CloneTags(tags))
	}
	if in.Result == ResultSuccess {
		sink.Gauge("agenda.warm.jobs", float64(in.Jobs), CloneTags(tags))
	}
}

// EmitWarmTick records a full warmer pass over all configured ranges.
func EmitWarmTick(sink statsd.Sink, ranges, failed int, d time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{"failed": strconv.FormatBool(failed > 0)}
	sink.Count("agenda.warm.tick", 1, tags)
	sink.Gauge("agenda.warm.ranges", float64(ranges), CloneTags(tags))
	sink.Timing("agenda.warm.tick.duration", d, CloneTags(tags))
}

// CloneTags returns a shallow copy of src, or nil when src is empty.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result != ResultError {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

func rangeTag(name string) string {
	if name == "" {
		return "all"
	}
	return name
}
