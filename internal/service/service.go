// Package service drives the reconciliation engine on a fixed interval.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/dvr-mirror/pkg/icron"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Cycler runs one reconciliation pass. It must not return until the pass,
// persistence included, is finished.
type Cycler interface {
	RunCycle(ctx context.Context)
}

// Service runs a Cycler on a fixed interval and at startup.
type Service struct {
	runner   Cycler
	cron     *cron.Cron
	cronExpr string
	now      func() time.Time

	group   singleflight.Group
	initial sync.WaitGroup

	mu      sync.RWMutex
	lastRun time.Time
}

// New schedules runner every interval on c. Build c with NewCron so that
// overlapping runs are skipped and panics are recovered.
func New(runner Cycler, c *cron.Cron, interval time.Duration) *Service {
	return &Service{
		runner:   runner,
		cron:     c,
		cronExpr: icron.EverySpec(interval),
		now:      time.Now,
	}
}

// NewCron returns a cron instance whose jobs never overlap and survive panics.
// Recover sits inside SkipIfStillRunning so a panicking run releases its slot.
func NewCron() *cron.Cron {
	logger := cronLogger{}
	return cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)
}

// Schedule registers the periodic job and starts the first cycle right away.
// The caller still has to start the cron.
func (s *Service) Schedule(ctx context.Context) error {
	if _, err := icron.Parse(s.cronExpr); err != nil {
		return err
	}
	log.Info("Scheduling reconciliation %s", s.cronExpr)

	if _, err := s.cron.AddFunc(s.cronExpr, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("schedule reconciliation: %w", err)
	}

	first := cron.NewChain(cron.Recover(cronLogger{})).Then(cron.FuncJob(func() { s.Trigger(ctx) }))
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		first.Run()
	}()
	return nil
}

// Wait blocks until the startup cycle launched by Schedule has finished.
// Cycles fired by the cron are tracked by the cron's own Stop.
func (s *Service) Wait() {
	s.initial.Wait()
}

// Trigger runs one cycle unless one is already running, in which case it waits
// for that cycle instead of starting another.
func (s *Service) Trigger(ctx context.Context) {
	_, _, _ = s.group.Do("run", func() (any, error) {
		if ctx.Err() != nil {
			return nil, nil
		}
		s.mu.Lock()
		s.lastRun = s.now()
		s.mu.Unlock()

		s.runner.RunCycle(ctx)
		return nil, nil
	})
}

// TriggerInfo reports when the last cycle started and when the next is due.
func (s *Service) TriggerInfo() (*icron.TriggerInfo, error) {
	s.mu.RLock()
	last := s.lastRun
	s.mu.RUnlock()
	return icron.GetTriggerInfo(s.cronExpr, last, s.now())
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug("cron: %s%s", msg, formatKeysAndValues(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error("cron: %s: %v%s", msg, err, formatKeysAndValues(keysAndValues))
}

func formatKeysAndValues(kv []any) string {
	var out string
	for i := 0; i+1 < len(kv); i += 2 {
		out += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return out
}
