package cache

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes expired cache entries. Expiry is otherwise lazy
// (checked on read), so without this job rows for tickers nobody asks
// about again would accumulate. Scheduled daily.
type CleanupJob struct {
	store *Store
	log   zerolog.Logger
}

// NewCleanupJob creates a cache cleanup job.
func NewCleanupJob(store *Store, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		store: store,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name for scheduler logs.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}

// Run removes all expired entries.
func (j *CleanupJob) Run() error {
	deleted, err := j.store.DeleteExpired()
	if err != nil {
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired cache entries")
	}
	return nil
}
