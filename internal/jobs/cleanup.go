package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/repository"
)

// CleanupJob periodically drops expired refresh sessions and reports codes
// whose window lapsed while still flagged active. Codes themselves are never
// deleted; expiry on the read path already keeps lapsed codes out of play,
// so the count is purely an observability signal.
type CleanupJob struct {
	sessionRepo repository.RefreshSessionRepository
	codeRepo    repository.CodeRepository
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.RefreshSessionRepository,
	codeRepo repository.CodeRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		codeRepo:    codeRepo,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup refresh sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up refresh sessions")
	}

	lapsed, err := j.codeRepo.CountLapsed(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to count lapsed codes")
	} else if lapsed > 0 {
		log.Debug().Int("count", lapsed).Msg("codes past their window awaiting audit")
	}
}
