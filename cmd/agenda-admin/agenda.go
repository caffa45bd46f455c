package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dealerops/agenda-api/internal/export"
)

func agendaCmd() *cobra.Command {
	var (
		opts   queryOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the agenda grouped by day",
		Example: `  agenda-admin agenda --range week --coordinator dc-alex
  agenda-admin agenda --file jobs.json --range custom --start 2026-03-01 --end 2026-03-07`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := opts.openAgenda(cliLogger(cmd))
			if err != nil {
				return err
			}
			defer release()

			req, err := opts.request(svc.Calendar())
			if err != nil {
				return err
			}
			view, err := svc.Agenda(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			printAgenda(cmd.OutOrStdout(), view, svc.Calendar().Location())
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the agenda view as JSON")
	return cmd
}

func conflictsCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List jobs double-booked on a vendor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := opts.openAgenda(cliLogger(cmd))
			if err != nil {
				return err
			}
			defer release()

			req, err := opts.request(svc.Calendar())
			if err != nil {
				return err
			}
			items, err := svc.Conflicts(cmd.Context(), req)
			if err != nil {
				return err
			}
			printConflicts(cmd.OutOrStdout(), items)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		opts queryOptions
		out  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the agenda to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := opts.openAgenda(cliLogger(cmd))
			if err != nil {
				return err
			}
			defer release()

			req, err := opts.request(svc.Calendar())
			if err != nil {
				return err
			}
			view, err := svc.Agenda(cmd.Context(), req)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.Write(f, view); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d items to %s\n", ok("Wrote"), len(view.Items), out)
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "agenda.xlsx", "output file")
	return cmd
}
