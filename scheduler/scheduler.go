package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the briefing job once a day at a fixed local time.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(loc))}, nil
}

// ScheduleDaily registers fn to run every day at the given HH:MM time.
func (s *Scheduler) ScheduleDaily(timeStr string, fn func()) error {
	hour, minute, err := parseClock(timeStr)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), fn); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func parseClock(timeStr string) (int, int, error) {
	parts := strings.SplitN(timeStr, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format: %q (expected HH:MM)", timeStr)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time format: %q (expected HH:MM)", timeStr)
	}
	return hour, minute, nil
}
