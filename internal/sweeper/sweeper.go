package sweeper

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper runs periodic housekeeping jobs on a seconds-resolution cron.
type Sweeper struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger: logger,
	}
}

// Every registers fn under a cron spec such as "0 */5 * * * *" or "@every 1m".
// fn returns the number of items it removed.
func (s *Sweeper) Every(spec, name string, fn func() int) error {
	_, err := s.cron.AddFunc(spec, func() {
		if n := fn(); n > 0 {
			s.logger.Debug("sweep", zap.String("job", name), zap.Int("removed", n))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (s *Sweeper) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("sweeper started", zap.Int("jobs", s.Len()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
