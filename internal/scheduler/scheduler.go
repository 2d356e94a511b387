package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/renewabletx/gridmix/internal/chart"
	"github.com/renewabletx/gridmix/internal/feed"
	"github.com/renewabletx/gridmix/internal/ingest"
	"github.com/renewabletx/gridmix/internal/logger"
)

// Scheduler periodically polls the fuel-mix feed, persists the snapshot,
// and renders the current-mix chart.
type Scheduler struct {
	scheduler *gocron.Scheduler
	feed      *feed.Client
	ingestor  *ingest.Service
	renderer  *chart.Renderer
	interval  time.Duration
	log       *logger.Logger
}

func New(feedClient *feed.Client, ingestor *ingest.Service, renderer *chart.Renderer, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		feed:      feedClient,
		ingestor:  ingestor,
		renderer:  renderer,
		interval:  interval,
		log:       log.With("component", "scheduler"),
	}
}

// Start schedules the periodic poll job and starts the underlying
// scheduler. The job also runs once right away.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	job, err := s.scheduler.Every(minutes).Minutes().Do(s.runCycle)
	if err != nil {
		return err
	}
	job.SingletonMode()

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "intervalMinutes", minutes)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runCycle executes one poll cycle. Failures skip the cycle; the next tick
// tries again.
func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reading, err := s.feed.Fetch(ctx)
	if err != nil {
		s.log.Error("fuel mix fetch failed", "error", err)
		return
	}

	snap, err := s.ingestor.Ingest(reading.Timestamp, reading.Mix)
	if err != nil {
		if errors.Is(err, ingest.ErrDuplicateSnapshot) {
			// The feed has not published a new reading yet.
			s.log.Warn("snapshot already ingested", "timestamp", reading.Timestamp)
			return
		}
		s.log.Error("snapshot ingestion failed", "timestamp", reading.Timestamp, "error", err)
		return
	}
	s.log.Info("saved snapshot",
		"timestamp", snap.Timestamp,
		"totalMw", snap.TotalMW(),
		"renewablePct", snap.RenewablePct(),
	)

	if s.renderer != nil {
		if _, err := s.renderer.RenderPie(chart.SlicesFromMix(reading.Mix), reading.Title(), reading.Timestamp); err != nil {
			s.log.Error("chart rendering failed", "timestamp", reading.Timestamp, "error", err)
		}
	}
}
