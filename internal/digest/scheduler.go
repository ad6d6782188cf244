package digest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/zulandar/hazstudy/internal/study"
)

// Scheduler builds the overdue report on a cron schedule.
type Scheduler struct {
	studies study.Store
	cron    string
	out     io.Writer
	now     func() time.Time
}

// SchedulerOpts holds parameters for creating a Scheduler.
type SchedulerOpts struct {
	Studies study.Store
	Cron    string
	Out     io.Writer        // report destination; nil logs it instead
	Now     func() time.Time // defaults to time.Now
}

// NewScheduler validates the cron expression and creates a Scheduler.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	if opts.Studies == nil {
		return nil, fmt.Errorf("digest: study store is required")
	}
	if err := ValidateCron(opts.Cron); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{studies: opts.Studies, cron: opts.Cron, out: opts.Out, now: opts.Now}, nil
}

// RunOnce builds the report for the current time.
func (s *Scheduler) RunOnce() (Report, error) {
	sessions, err := s.studies.List()
	if err != nil {
		return Report{}, fmt.Errorf("digest: list studies: %w", err)
	}
	return Overdue(sessions, s.now()), nil
}

// Run fires the digest on every cron tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(nextCronDuration(s.cron, s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			s.fire()
			timer.Reset(nextCronDuration(s.cron, s.now()))
		}
	}
}

func (s *Scheduler) fire() {
	report, err := s.RunOnce()
	if err != nil {
		log.Printf("digest: %v", err)
		return
	}
	title, body := Format(report)
	if s.out == nil {
		log.Printf("digest: %s\n%s", title, body)
		return
	}
	if _, err := fmt.Fprintf(s.out, "%s\n%s\n", title, body); err != nil {
		log.Printf("digest: write report: %v", err)
	}
}
