package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealerops/agenda-api/internal/bootstrap"
	"github.com/dealerops/agenda-api/internal/data"
	"github.com/dealerops/agenda-api/internal/data/jobfile"
	"github.com/dealerops/agenda-api/internal/devseed"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check job export files against the export schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err == nil {
					err = jobfile.Validate(raw)
				}
				var jobs int
				if err == nil {
					decoded, derr := jobfile.Decode(raw)
					jobs, err = len(decoded), derr
				}
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s %s: %v\n", bad("FAIL"), path, err)
					continue
				}
				fmt.Fprintf(w, "%s %s (%d jobs)\n", ok("OK  "), path, jobs)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := cliLogger(cmd)
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			db, err := connectDB(&cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := bootstrap.RunMigrations(cmd.Context(), db, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok("Migrations applied"))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := cliLogger(cmd)
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			db, err := connectDB(&cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			migrations, err := data.MigrationStatus(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, m := range migrations {
				state := warn("pending")
				if m.Applied {
					state = ok("applied")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-28s %s\n", m.Version, state)
			}
			return nil
		},
	})
	return cmd
}

func seedCmd() *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample jobs around today for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := cliLogger(cmd)
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			if !cfg.IsDev {
				return errors.New("seed only runs with DEV=true")
			}
			cal, err := cfg.Agenda.Calendar()
			if err != nil {
				return err
			}
			clock, err := data.ParseNow(now)
			if err != nil {
				return fmt.Errorf("--now: %w", err)
			}

			db, err := connectDB(&cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			repo := data.NewJobRepo(db, data.RepoConfig{Logger: logger})
			res, err := devseed.Run(cmd.Context(), repo, devseed.SampleJobs(cal, clock.Now()), logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d inserted, %d already present (%s)\n",
				ok("Seeded"), res.Inserted, res.Skipped, clock.Now().In(cal.Location()).Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "anchor the sample jobs on this RFC3339 time")
	return cmd
}
