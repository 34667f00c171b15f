package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"MatchSync/internal/model"
)

// Ingester is the part of IngestService the scheduler drives.
type Ingester interface {
	Ingest(ctx context.Context, sport model.Sport) model.IngestResult
}

// SportStatus is the recent health of one sport's scheduled ingestion.
type SportStatus struct {
	ConsecutiveFailures int                `json:"consecutive_failures"`
	LastError           string             `json:"last_error,omitempty"`
	LastAttempt         time.Time          `json:"last_attempt"`
	LastSuccess         time.Time          `json:"last_success"`
	LastResult          model.IngestResult `json:"last_result"`
}

// Scheduler ingests the enabled sports on a fixed interval. Runs of one sport never overlap.
type Scheduler struct {
	ingester Ingester
	sports   []model.Sport
	interval time.Duration
	logger   *logrus.Logger

	sportMu map[model.Sport]*sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	wg       sync.WaitGroup

	statusMu sync.RWMutex
	status   map[model.Sport]SportStatus
}

func NewScheduler(ingester Ingester, sports []model.Sport, interval time.Duration, logger *logrus.Logger) *Scheduler {
	s := &Scheduler{
		ingester: ingester,
		sports:   sports,
		interval: interval,
		logger:   logger,
		sportMu:  make(map[model.Sport]*sync.Mutex, len(sports)),
		done:     make(chan struct{}),
		status:   make(map[model.Sport]SportStatus, len(sports)),
	}
	for _, sport := range sports {
		s.sportMu[sport] = &sync.Mutex{}
	}
	return s
}

// Start runs one round immediately and then one per interval until ctx is done or Stop is
// called. Calling it again is a no-op. A non-positive interval disables the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	if s.started || s.interval <= 0 || len(s.sports) == 0 {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.startMu.Unlock()

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		s.logger.WithFields(logrus.Fields{"interval": s.interval.String(), "sports": s.sports}).Info("scheduler started")

		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopped")
				return
			case <-s.done:
				s.logger.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for the round in flight.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

// RunOnce ingests every enabled sport once. A sport whose previous run is still going is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, sport := range s.sports {
		if ctx.Err() != nil {
			return
		}
		s.runSport(ctx, sport)
	}
}

func (s *Scheduler) runSport(ctx context.Context, sport model.Sport) {
	// 1. one run per sport at a time
	mu := s.sportMu[sport]
	if !mu.TryLock() {
		s.logger.WithField("sport", sport).Warn("previous run still in progress, skipping")
		return
	}
	defer mu.Unlock()

	// 2. ingest
	start := time.Now()
	res := s.ingester.Ingest(ctx, sport)

	// 3. status for /healthz
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status[sport]
	st.LastAttempt = start
	st.LastResult = res
	if res.Succeeded() {
		st.ConsecutiveFailures = 0
		st.LastError = ""
		st.LastSuccess = start
	} else {
		st.ConsecutiveFailures++
		st.LastError = res.Message
	}
	s.status[sport] = st
}

// Status returns a snapshot per enabled sport.
func (s *Scheduler) Status() map[model.Sport]SportStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	out := make(map[model.Sport]SportStatus, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}
