package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/report"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the attendance history as CSV",
	Long: `Write the full attendance history, most recent first, as CSV.

Example:
  campus-attendance export                       # to stdout
  campus-attendance export -o attendance.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.attendance.ListAttendance(ctx, 0)
	if err != nil {
		return fmt.Errorf("reading attendance: %w", err)
	}

	path := mustGetString(cmd, "output")
	if path == "" || path == "-" {
		return writeExport(os.Stdout, records, loc)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeExport(f, records, loc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d mark(s) to %s\n", len(records), path)
	return nil
}

func writeExport(w io.Writer, records []database.AttendanceRecord, loc *time.Location) error {
	if err := report.WriteCSV(w, records, loc); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
