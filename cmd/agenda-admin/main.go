// Command agenda-admin inspects agendas from the job store or a job export file and runs
// schema and seed maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1) //nolint:forbidigo // CLI entrypoint exits non-zero on failure.
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agenda-admin",
		Short: "Inspect dealership agendas and maintain the job store",
		Long: `agenda-admin runs the agenda engine from the command line.

Agenda commands read jobs from PostgreSQL (configured through the DB_* environment
variables) or, with --file, from a job export JSON document. The calendar zone and
week start come from AGENDA_TIMEZONE and AGENDA_WEEK_START.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	root.AddCommand(agendaCmd())
	root.AddCommand(conflictsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	return root
}
