package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/campus-attendance/internal/constants"
	"github.com/kozaktomas/campus-attendance/internal/enrollment"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest.csv>",
	Short: "Enroll students in bulk from a CSV manifest",
	Long: `Enroll many students from a CSV manifest with the columns
student_id,name,course,photo. A header row is optional. Photo paths are
resolved relative to the manifest.

Rows that fail (no face, duplicate ID, unreadable photo) are reported and
skipped; the remaining students are still enrolled.

Example:
  campus-attendance import students.csv
  campus-attendance import -c 8 students.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntP("concurrency", "c", constants.ImportConcurrency, "Number of concurrent enrollments")
}

// manifestRow is one student to enroll.
type manifestRow struct {
	Line      int
	StudentID string
	Name      string
	Course    string
	Photo     string
}

// readManifest parses the import manifest. Photo paths are joined to baseDir
// unless absolute.
func readManifest(r io.Reader, baseDir string) ([]manifestRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var rows []manifestRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest: %w", err)
		}
		if line == 1 && isManifestHeader(rec) {
			continue
		}

		photo := strings.TrimSpace(rec[3])
		if photo != "" && !filepath.IsAbs(photo) {
			photo = filepath.Join(baseDir, photo)
		}
		rows = append(rows, manifestRow{
			Line:      line,
			StudentID: strings.TrimSpace(rec[0]),
			Name:      strings.TrimSpace(rec[1]),
			Course:    strings.TrimSpace(rec[2]),
			Photo:     photo,
		})
	}
	return rows, nil
}

func isManifestHeader(rec []string) bool {
	first := strings.ToLower(strings.TrimSpace(rec[0]))
	return first == "student_id" || first == "id"
}

func runImport(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()

	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("cannot open manifest %s: %w", manifestPath, err)
	}
	rows, err := readManifest(f, filepath.Dir(manifestPath))
	f.Close()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No students found in the manifest.")
		return nil
	}
	fmt.Printf("Found %d student(s) to enroll\n", len(rows))

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	model := facemodel.NewClient(cfg.FaceModel.URL, cfg.FaceModel.Timeout)
	service := newEnrollmentService(cfg, s, model, nil, log)

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var (
		failures []string
		enrolled int
		mu       sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, row := range rows {
		g.Go(func() error {
			defer bar.Add(1)

			photo, err := os.ReadFile(row.Photo)
			if err == nil {
				_, err = service.Register(gctx, enrollment.Request{
					StudentID: row.StudentID,
					Name:      row.Name,
					Course:    row.Course,
					Photo:     photo,
				})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("line %d (%s): %v", row.Line, row.StudentID, err))
				return nil
			}
			enrolled++
			return nil
		})
	}
	_ = g.Wait()
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}
	fmt.Printf("\nEnrolled %d of %d student(s)\n", enrolled, len(rows))

	if enrolled > 0 {
		notifyRosterChanged(ctx, cfg, log)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d student(s) could not be enrolled", len(failures))
	}
	return nil
}
