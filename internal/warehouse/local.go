package warehouse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

// LocalTriggerService keeps the trigger fleet in an in-process cron runner.
// It serves deployments without an external task service and the test
// suite; the daemon binary points every trigger at a reconciler pass.
type LocalTriggerService struct {
	mu      sync.Mutex
	runner  *cron.Cron
	job     func(trigger string)
	entries map[string]localTrigger
}

type localTrigger struct {
	expr    string
	id      cron.EntryID
	running bool
}

// NewLocalTriggerService creates a stopped runner; call Start once wiring is
// done. job is invoked with the trigger name on every firing.
func NewLocalTriggerService(job func(trigger string)) *LocalTriggerService {
	return &LocalTriggerService{
		runner:  cron.New(),
		job:     job,
		entries: make(map[string]localTrigger),
	}
}

func (s *LocalTriggerService) Start() { s.runner.Start() }

func (s *LocalTriggerService) Stop() { s.runner.Stop() }

func (s *LocalTriggerService) SetSchedule(ctx context.Context, trigger, cronExpr string) error {
	spec, err := localCronSpec(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[trigger]
	if ok && cur.expr == cronExpr {
		return nil
	}
	if ok && cur.running {
		s.runner.Remove(cur.id)
	}
	// The entry is registered suspended; Resume schedules it.
	s.entries[trigger] = localTrigger{expr: spec}
	return nil
}

func (s *LocalTriggerService) Resume(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[trigger]
	if !ok || cur.expr == "" {
		return fmt.Errorf("trigger %s has no schedule", trigger)
	}
	if cur.running {
		return nil
	}
	name := trigger
	id, err := s.runner.AddFunc(cur.expr, func() { s.job(name) })
	if err != nil {
		return fmt.Errorf("schedule trigger %s: %w", trigger, err)
	}
	cur.id = id
	cur.running = true
	s.entries[trigger] = cur
	return nil
}

func (s *LocalTriggerService) Suspend(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[trigger]
	if !ok || !cur.running {
		return nil
	}
	s.runner.Remove(cur.id)
	cur.running = false
	s.entries[trigger] = cur
	return nil
}

// localCronSpec converts the planner's "M H * * DOW TZ" form into the
// CRON_TZ prefix robfig/cron expects.
func localCronSpec(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) != 6 {
		return "", fmt.Errorf("cron expression %q must have five fields and a timezone", expr)
	}
	tz := fields[len(fields)-1]
	spec := fmt.Sprintf("CRON_TZ=%s %s", tz, strings.Join(fields[:5], " "))
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return spec, nil
}
