package cmd

import (
	"fmt"
	"os"

	"github.com/kozaktomas/campus-attendance/internal/enrollment"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <student-id> <name> <course> <photo>",
	Short: "Enroll one student from a photo",
	Long: `Enroll a student from a single photo containing exactly one face.

The photo is sent to the face model, the embedding is stored with the student
and running servers are told to reload their roster when Redis is configured.

Example:
  campus-attendance enroll S001 "Jiří Novák" "Computer Science" ./photos/s001.jpg`,
	Args: cobra.ExactArgs(4),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()

	photo, err := os.ReadFile(args[3])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	model := facemodel.NewClient(cfg.FaceModel.URL, cfg.FaceModel.Timeout)
	service := newEnrollmentService(cfg, s, model, nil, log)

	student, err := service.Register(ctx, enrollment.Request{
		StudentID: args[0],
		Name:      args[1],
		Course:    args[2],
		Photo:     photo,
	})
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", args[0], err)
	}

	fmt.Printf("Enrolled %s (%s, %s)\n", student.ID, student.Name, student.Course)
	notifyRosterChanged(ctx, cfg, log)
	return nil
}
