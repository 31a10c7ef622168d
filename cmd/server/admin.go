package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"perfcycle/internal/app/server"
	"perfcycle/internal/domain/reports"
	"perfcycle/internal/platform/config"
	"perfcycle/internal/platform/db"
	"perfcycle/internal/platform/jobs"
	"perfcycle/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StorageDriver != config.StoragePostgres {
			return errors.New("migrate requires the postgres storage driver")
		}

		ctx := context.Background()
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("db connect failed: %w", err)
		}
		defer pool.Close()

		applied, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println(color.YellowString("No pending migrations"))
			return nil
		}
		for _, version := range applied {
			fmt.Printf("%s %s\n", color.GreenString("applied"), version)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the HR admin account from SEED_ADMIN_* settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		created, err := app.Seed(context.Background())
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("%s HR admin %q\n", color.GreenString("created"), app.Config.SeedAdminUsername)
		} else {
			fmt.Println(color.YellowString("HR admin already present or seed credentials not set"))
		}
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for pending reviews due on a day",
	Long: `Notify the assignee of every pending goal and task review due on the
given day (today by default). Reminders are deduplicated per review, recipient
and day, so the command can be scheduled more than once a day.

Examples:
  perfcycle remind
  perfcycle remind --date 2026-03-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("date")
		day := time.Now().UTC()
		if raw != "" {
			parsed, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
			}
			day = parsed
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		out, err := app.Jobs.RunNow(ctx, jobs.JobReviewReminders, func(ctx context.Context) (any, error) {
			return app.Reviews.SendDueReviewReminders(ctx, day)
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %+v\n", color.GreenString("reminders"), out)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <goal-reviews|task-reviews>",
	Short: "Export a review report as CSV or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format != reports.FormatCSV && format != reports.FormatPDF {
			return fmt.Errorf("unsupported format %q", format)
		}
		if format == reports.FormatPDF && output == "" {
			return errors.New("--output is required for pdf exports")
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if output == "" {
			return writeExport(cmd.Context(), app.Reports, args[0], format, nopCloser{os.Stdout})
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := writeExport(cmd.Context(), app.Reports, args[0], format, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("wrote"), output)
		return nil
	},
}

type exporter interface {
	ExportUnchecked(ctx context.Context, kind, format string, w io.Writer) error
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// writeExport renders the report into w and closes it. A failed close is
// reported since it may be the write that reaches disk.
func writeExport(ctx context.Context, src exporter, kind, format string, w io.WriteCloser) (err error) {
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing export: %w", closeErr)
		}
	}()
	buf := bufio.NewWriter(w)
	if err := src.ExportUnchecked(ctx, kind, format, buf); err != nil {
		return err
	}
	return buf.Flush()
}

func init() {
	remindCmd.Flags().String("date", "", "day to sweep (YYYY-MM-DD, default today)")
	exportCmd.Flags().StringP("format", "f", reports.FormatCSV, "csv or pdf")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}

func openApp() (*server.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.RunSeed = false
	return server.New(context.Background(), cfg)
}
