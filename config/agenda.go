package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/agenda"
)

// AgendaConfig controls the calendar engine.
type AgendaConfig struct {
	// Timezone is the IANA reference zone that defines calendar days.
	Timezone string `env:"AGENDA_TIMEZONE" envDefault:"America/New_York"`

	// WeekStart is the first day of the "week" range (sunday or monday).
	WeekStart string `env:"AGENDA_WEEK_START" envDefault:"sunday"`

	// SearchPaths are JMESPath expressions evaluated on each raw job record to feed free-text
	// search. Separated by ";" because expressions may contain commas.
	SearchPaths []string `env:"AGENDA_SEARCH_PATHS" envSeparator:";"`

	// MaxJobs caps how many jobs one agenda query prefetches.
	MaxJobs int `env:"AGENDA_MAX_JOBS" envDefault:"2000"`

	Flags AgendaFlags
}

// AgendaFlags are display switches passed into the filter pipeline.
type AgendaFlags struct {
	DisablePartWindows    bool `env:"AGENDA_FLAG_DISABLE_PART_WINDOWS"     envDefault:"false"`
	DisableAllDayPromises bool `env:"AGENDA_FLAG_DISABLE_ALL_DAY_PROMISES" envDefault:"false"`
}

// Sanitize applies guardrails to agenda configuration values.
func (c *AgendaConfig) Sanitize() {
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = agenda.DefaultZone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if _, err := parseWeekday(c.WeekStart); err != nil {
		c.WeekStart = "sunday"
	}
	if c.MaxJobs < 1 {
		c.MaxJobs = 2000
	}
	if c.MaxJobs > 10000 {
		c.MaxJobs = 10000
	}
}

// Calendar builds the reference calendar described by the config.
func (c *AgendaConfig) Calendar() (*agenda.Calendar, error) {
	day, err := parseWeekday(c.WeekStart)
	if err != nil {
		return nil, err
	}
	return agenda.LoadCalendar(c.Timezone, agenda.WithWeekStart(day))
}

// PipelineFlags converts the env flags to the engine's flag set.
func (c *AgendaConfig) PipelineFlags() agenda.Flags {
	return agenda.Flags{
		DisablePartWindows:    c.Flags.DisablePartWindows,
		DisableAllDayPromises: c.Flags.DisableAllDayPromises,
	}
}

// CompiledSearchPaths compiles SearchPaths.
func (c *AgendaConfig) CompiledSearchPaths() ([]agenda.SearchPath, error) {
	return agenda.CompileSearchPaths(c.SearchPaths)
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return time.Sunday, fmt.Errorf("invalid week start %q (valid: sunday, monday, saturday)", s)
	}
}
