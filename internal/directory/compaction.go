package directory

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// StartCompaction runs Compact every interval until the returned scheduler is
// stopped.
func StartCompaction(svc *Service, interval time.Duration, logger zerolog.Logger) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)

	_, err := s.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		removed, err := svc.Compact(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("room compaction failed")
			return
		}
		if removed > 0 {
			logger.Info().Int("removed", removed).Msg("compacted expired rooms")
		}
	})
	if err != nil {
		return nil, err
	}

	s.StartAsync()
	return s, nil
}
