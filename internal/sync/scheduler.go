package sync

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/config"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

const fallbackSweepInterval = 10 * time.Minute

// Scheduler runs the periodic housekeeping jobs: sweeping expired sessions and,
// when configured, marking report snapshots stale.
type Scheduler struct {
	cfg      *config.Config
	sessions *auth.Sessions
	loader   *store.Loader
	cron     *cron.Cron
	stop     chan struct{}
}

func NewScheduler(cfg *config.Config, sessions *auth.Sessions, loader *store.Loader) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		sessions: sessions,
		loader:   loader,
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	// Set up cron scheduler with configured timezone
	loc := s.cfg.GetTimezone()
	s.cron = cron.New(cron.WithLocation(loc))

	_, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweep)
	if err != nil {
		slog.Error("failed to add sweep job, falling back to ticker",
			"schedule", s.cfg.SweepSchedule, "interval", fallbackSweepInterval, "error", err)
		go s.tick(fallbackSweepInterval, s.sweep)
	} else {
		slog.Info("scheduled session sweep", "schedule", s.cfg.SweepSchedule, "timezone", loc.String())
	}

	if s.cfg.RefreshSchedule != "" {
		_, err := s.cron.AddFunc(s.cfg.RefreshSchedule, func() {
			s.loader.Invalidate("scheduled refresh")
		})
		if err != nil {
			slog.Error("failed to add refresh job", "schedule", s.cfg.RefreshSchedule, "error", err)
		} else {
			slog.Info("scheduled snapshot refresh", "schedule", s.cfg.RefreshSchedule)
		}
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *Scheduler) sweep() {
	n := s.sessions.Sweep()
	slog.Debug("session sweep finished", "removed", n, "active", s.sessions.Len())
}

func (s *Scheduler) tick(every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-s.stop:
			return
		}
	}
}
