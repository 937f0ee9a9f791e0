package cron

import (
	"context"
	"log"
	"time"

	"github.com/kinoxada/kinobot/internal/store"
)

// StatsJob logs catalog size and user count. Scheduled daily so the
// operator gets a growth trace in the process log.
func StatsJob(cat store.Catalog) func(ctx context.Context) {
	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		movies, err := cat.ListMovies(ctx)
		if err != nil {
			log.Printf("[cron] stats: list movies: %v", err)
			return
		}
		users, err := cat.CountUsers(ctx)
		if err != nil {
			log.Printf("[cron] stats: count users: %v", err)
			return
		}
		log.Printf("[cron] stats: %d movies, %d users", len(movies), users)
	}
}
