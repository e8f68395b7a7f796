package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
)

// Sweeper periodically evicts sessions whose inactivity exceeds the TTL.
type Sweeper struct {
	store     Store
	ttl       time.Duration
	interval  time.Duration
	chunkSize int
	logger    *logrus.Logger
}

func NewSweeper(store Store, ttl, interval time.Duration, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		ttl:       ttl,
		interval:  interval,
		chunkSize: constants.SweepChunkSize,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled, sweeping on each tick. Callers start it
// in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithFields(logrus.Fields{
		"ttl":      s.ttl,
		"interval": s.interval,
	}).Info("Session sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.store.Sweep(ctx, s.ttl, s.chunkSize); err != nil {
				s.logger.WithError(err).Error("Session sweep failed")
			}
		}
	}
}
