package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

func ok(s string) string   { return color.New(color.FgGreen).Sprint(s) }
func warn(s string) string { return color.New(color.FgYellow).Sprint(s) }
func bad(s string) string  { return color.New(color.FgRed, color.Bold).Sprint(s) }

func statusLabel(status model.JobStatus) string {
	switch status {
	case model.JobStatusCompleted:
		return color.New(color.FgGreen).Sprint(status)
	case model.JobStatusInProgress, model.JobStatusQualityCheck:
		return color.New(color.FgCyan).Sprint(status)
	case model.JobStatusCancelled:
		return color.New(color.Faint).Sprint(status)
	case model.JobStatusPending, model.JobStatusDraft:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return string(status)
	}
}

func printAgenda(w io.Writer, view *model.AgendaView, loc *time.Location) {
	header := "Agenda"
	if view.Range != "" {
		header += " " + view.Range
	}
	if !view.Start.IsZero() {
		header += fmt.Sprintf(" (%s to %s)",
			view.Start.In(loc).Format(time.DateOnly),
			view.End.In(loc).Add(-time.Nanosecond).Format(time.DateOnly))
	}
	fmt.Fprintln(w, header)

	if len(view.Items) == 0 {
		fmt.Fprintln(w, "  (no jobs)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, day := range view.Days {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "%s\n", dayHeading(day))
		for _, item := range day.Items {
			printItem(tw, item)
		}
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d jobs", len(view.Items))
	if n := len(view.Conflicts); n > 0 {
		summary += ", " + bad(fmt.Sprintf("%d in conflict", n))
	}
	fmt.Fprintln(w, summary)
}

func dayHeading(day model.AgendaDay) string {
	if day.DateKey == "" {
		return warn("Unscheduled")
	}
	if len(day.Items) > 0 && day.Items[0].DisplayDate != "" {
		return day.Items[0].DisplayDate
	}
	return day.DateKey
}

func printItem(w io.Writer, item model.AgendaItem) {
	when := item.TimeWindow
	if when == "" && item.AllDay {
		when = "All day"
	}
	label := item.Job.Title
	who := item.Job.CustomerLabel
	if who == "" {
		who = item.Job.CustomerName
	}
	if who != "" {
		label += " / " + who
	}
	mark := ""
	if item.Conflict {
		mark = bad("CONFLICT")
	}
	fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
		when, statusLabel(item.EffectiveStatus), item.Job.JobNumber, label, item.Location, mark)
}

func printConflicts(w io.Writer, items []model.AgendaItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, ok("No vendor conflicts"))
		return
	}
	fmt.Fprintln(w, bad(fmt.Sprintf("%d jobs in conflict", len(items))))
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\tvendor %s\n",
			item.DisplayDate, item.TimeWindow, item.Job.JobNumber, item.Job.Title, vendorOf(item.Job))
	}
	_ = tw.Flush()
}

func vendorOf(job model.Job) string {
	if job.VendorID != "" {
		return job.VendorID
	}
	for _, p := range job.Parts {
		if p.VendorID != "" {
			return p.VendorID
		}
	}
	return "-"
}
