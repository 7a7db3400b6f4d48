package workers

import (
	"context"
	"log"
	"time"

	"calixoAPI/services"
)

// StartSweeper expires finished-but-unclaimed challenge attempts in the
// background. An attempt sitting in 'finished' for more than 24 hours is
// moved to 'not_claimed' so it stops counting against the daily quota.
func StartSweeper(challengeService *services.ChallengeService, stop <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Hour)

	go func() {
		defer ticker.Stop()

		sweep(challengeService)
		for {
			select {
			case <-ticker.C:
				sweep(challengeService)
			case <-stop:
				log.Println("Stale-challenge sweeper stopped")
				return
			}
		}
	}()
}

func sweep(challengeService *services.ChallengeService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := challengeService.MarkStaleFinishedAsNotClaimed(ctx)
	if err != nil {
		log.Printf("Failed to sweep stale finished challenges: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Marked %d stale finished challenges as not_claimed", n)
	}
}
