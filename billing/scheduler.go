package billing

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the recurring billing jobs.
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
}

// NewScheduler registers the overdue sweep under spec, a standard cron
// expression or descriptor such as "@hourly".
func NewScheduler(svc *Service, spec string) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		svc:  svc,
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.svc.SweepOverdue(ctx)
	if err != nil {
		logrus.WithError(err).Error("overdue bill sweep failed")
		return
	}
	if n > 0 {
		logrus.WithField("bills", n).Info("bills marked overdue")
	}
}

func (s *Scheduler) Start() {
	logrus.Info("billing scheduler started")
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logrus.Info("billing scheduler stopped")
}
