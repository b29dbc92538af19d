// Package scheduler runs periodic background work: generating weekly
// progress reports for every active client at the configured interval.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/BigZorin/coachdesk/internal/assistant"
	"github.com/BigZorin/coachdesk/internal/models"
)

// Status holds the result of the last report run.
type Status struct {
	LastRun          time.Time
	NextRun          time.Time
	ReportsGenerated int64
	ReportsFailed    int64
	IntervalHours    int
}

// Scheduler generates weekly reports in the background.
type Scheduler struct {
	db        *sql.DB
	knowledge assistant.KnowledgeSource
	ingest    assistant.ArtifactIngestor
	notify    assistant.Notifier
	stop      chan struct{}
	done      chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a Scheduler. The knowledge, ingest, and notify adapters are
// passed through to the per-run engine and may be nil.
func New(db *sql.DB, knowledge assistant.KnowledgeSource, ingest assistant.ArtifactIngestor, notify assistant.Notifier) *Scheduler {
	return &Scheduler{
		db:        db,
		knowledge: knowledge,
		ingest:    ingest,
		notify:    notify,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the report loop. It runs an initial pass immediately, then
// repeats at the configured interval. Call Stop to shut down gracefully.
func (s *Scheduler) Start() {
	go s.run()
	log.Println("Background scheduler started")
}

// Stop signals the scheduler to shut down and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Status returns the result of the last report run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runReports()

	for {
		interval := s.getInterval()
		ticker := time.NewTicker(interval)

		select {
		case <-ticker.C:
			ticker.Stop()
			s.runReports()
		case <-s.stop:
			ticker.Stop()
			return
		}
	}
}

// getInterval reads the configured interval from app settings.
func (s *Scheduler) getInterval() time.Duration {
	hours := models.GetReportIntervalHours(s.db)
	return time.Duration(hours) * time.Hour
}

// runReports generates a weekly report for every active client of every
// coach. The provider is rebuilt from settings each run so configuration
// changes take effect without a restart. A per-client failure is logged and
// counted, never fatal to the run.
func (s *Scheduler) runReports() {
	var generated, failed int64

	provider, err := assistant.NewProviderFromSettings(s.db)
	if errors.Is(err, assistant.ErrNotConfigured) {
		log.Println("Scheduler: assistant not configured, skipping report run")
		s.record(generated, failed)
		return
	}
	if err != nil {
		log.Printf("Scheduler: create provider: %v", err)
		s.record(generated, failed)
		return
	}

	engine := &assistant.Engine{
		DB:        s.db,
		Provider:  provider,
		Knowledge: s.knowledge,
		Ingest:    s.ingest,
		Notify:    s.notify,
	}

	log.Println("Running scheduled report generation...")

	coaches, err := models.ListCoaches(s.db)
	if err != nil {
		log.Printf("Scheduler: list coaches: %v", err)
		s.record(generated, failed)
		return
	}

	for _, coach := range coaches {
		clients, err := models.ListActiveClients(s.db, coach.ID)
		if err != nil {
			log.Printf("Scheduler: list clients for coach %d: %v", coach.ID, err)
			continue
		}
		for _, client := range clients {
			if _, err := engine.GenerateWeeklyReport(context.Background(), coach.ID, client.ID); err != nil {
				log.Printf("Scheduler: report for client %d: %v", client.ID, err)
				failed++
				continue
			}
			generated++
		}
	}

	s.record(generated, failed)
	log.Printf("Scheduled report generation complete: %d generated, %d failed", generated, failed)
}

func (s *Scheduler) record(generated, failed int64) {
	now := time.Now()
	s.mu.Lock()
	s.status = Status{
		LastRun:          now,
		NextRun:          now.Add(s.getInterval()),
		ReportsGenerated: generated,
		ReportsFailed:    failed,
		IntervalHours:    models.GetReportIntervalHours(s.db),
	}
	s.mu.Unlock()
}
