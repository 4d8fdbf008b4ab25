package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/campus-attendance/internal/config"
	"github.com/kozaktomas/campus-attendance/internal/database/postgres"
	"github.com/kozaktomas/campus-attendance/internal/enrollment"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/facemodel"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/roster"
	"github.com/kozaktomas/campus-attendance/internal/stats"
	"github.com/spf13/cobra"
)

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if mode := mustGetString(cmd, "log-mode"); mode != "" {
		cfg.Log.Mode = mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

// stores are the repositories shared by all commands.
type stores struct {
	pool       *postgres.Pool
	students   *postgres.StudentRepository
	attendance *postgres.AttendanceRepository
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	pool, err := postgres.Initialize(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return &stores{
		pool:       pool,
		students:   postgres.NewStudentRepository(pool),
		attendance: postgres.NewAttendanceRepository(pool),
	}, nil
}

func (s *stores) Close() {
	s.pool.Close()
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *events.RedisPublisher {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb, err := events.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.Channel, log)
	if err != nil {
		log.Warn("redis unavailable, events stay in-process", "addr", cfg.Redis.Addr, "error", err)
		return nil
	}
	log.Info("publishing events to redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	return rdb
}

func newRosterStore(cfg *config.Config, s *stores, log *logger.Logger, counters *stats.Counters) *roster.Store {
	return roster.NewStore(s.students, roster.Options{
		IndexMinSize: cfg.Recognition.HNSWMinRoster,
		Candidates:   cfg.Recognition.HNSWCandidates,
	}, log.With("component", "roster"), counters)
}

func newEnrollmentService(cfg *config.Config, s *stores, model facemodel.Model, reloader enrollment.Reloader, log *logger.Logger) *enrollment.Service {
	return enrollment.NewService(s.students, model, reloader, enrollment.Options{
		MultiFacePolicy: cfg.Enrollment.MultiFacePolicy,
		MaxImageSize:    cfg.Enrollment.MaxImageSize,
	}, log.With("component", "enrollment"))
}

// notifyRosterChanged tells running servers to reload their roster.
func notifyRosterChanged(ctx context.Context, cfg *config.Config, log *logger.Logger) {
	rdb := connectRedis(ctx, cfg, log)
	if rdb == nil {
		fmt.Println("Redis is not configured: restart running servers to pick up new students.")
		return
	}
	defer rdb.Close()
	if err := rdb.Publish(ctx, events.Event{Type: events.TypeRosterChanged, Timestamp: time.Now()}); err != nil {
		log.Warn("failed to publish roster change", "error", err)
	}
}
