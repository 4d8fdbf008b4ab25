package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/attendance"
	"github.com/kozaktomas/campus-attendance/internal/capture"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/kozaktomas/campus-attendance/internal/recognition"
	"github.com/kozaktomas/campus-attendance/internal/stats"
	"github.com/kozaktomas/campus-attendance/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Campus Attendance web server.
The server loads the roster, serves the live recognition feed at /video_feed,
the dashboard API under /api/v1 and the attendance CSV export at /export.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	ctx := cmd.Context()

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	counters := &stats.Counters{}
	rosterStore := newRosterStore(cfg, s, log, counters)
	if _, err := rosterStore.Reload(ctx); err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	hub := events.NewHub()
	publisher := events.Multi{hub}
	rdb := connectRedis(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
		publisher = append(publisher, rdb)
	}

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}
	ledger := attendance.NewLedger(s.attendance, attendance.Options{
		Location:  loc,
		Publisher: publisher,
	}, log.With("component", "ledger"), counters)

	model := facemodel.NewClient(cfg.FaceModel.URL, cfg.FaceModel.Timeout)
	annotator, err := recognition.NewAnnotator()
	if err != nil {
		return fmt.Errorf("loading label font: %w", err)
	}
	loop := recognition.NewLoop(capture.NewOpener(cfg.Camera), model, rosterStore, ledger, annotator, recognition.Options{
		Scale:        cfg.Recognition.Scale,
		Threshold:    cfg.Recognition.Threshold,
		FrameTimeout: cfg.Recognition.FrameTimeout,
		JPEGQuality:  cfg.Recognition.JPEGQuality,
	}, log.With("component", "recognition"), counters)

	server := web.NewServer(cfg, web.Deps{
		Ledger:   ledger,
		Students: s.students,
		Enroller: newEnrollmentService(cfg, s, model, rosterStore, log),
		Stream:   loop,
		Roster:   rosterStore,
		Hub:      hub,
		Counters: counters,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if rdb != nil {
		changes, err := rdb.Subscribe(gctx)
		if err != nil {
			log.Warn("cannot follow roster changes", "error", err)
		} else {
			g.Go(func() error {
				rosterStore.Follow(gctx, changes)
				return nil
			})
		}
	}

	log.Info("campus attendance ready",
		"addr", cfg.Web.Addr(),
		"camera", cfg.Camera.Source,
		"face_model", cfg.FaceModel.URL,
		"students", rosterStore.Current().Len(),
	)
	return g.Wait()
}
