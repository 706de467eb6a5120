// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SettleEnded closes every game whose window has passed.
func (s *GameService) SettleEnded(ctx context.Context) (int, error) {
	n, err := s.Ledger.SettleEndedGames(ctx, s.Now().UTC())
	if n > 0 {
		gamesSettled.Add(float64(n))
	}
	return n, err
}

// StartSettlementScheduler runs SettleEnded every interval until Shutdown.
func (s *GameService) StartSettlementScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			n, err := s.SettleEnded(ctx)
			if err != nil {
				log.Printf("[Scheduler] settlement error after %d games: %v", n, err)
				return
			}
			if n > 0 {
				log.Printf("✅ Settled %d ended game(s)", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
