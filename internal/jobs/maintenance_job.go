package job

import (
	"context"
	"time"

	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/sirupsen/logrus"
)

// Schedule runs the job every ten minutes in robfig/cron syntax.
const Schedule = "@every 10m"

// StaleProcessingAfter is how long a post may stay in processing before
// it is considered abandoned by its worker.
const StaleProcessingAfter = 15 * time.Minute

type MaintenanceJob struct {
	log    logrus.FieldLogger
	tokens service.TokenService
	posts  repository.PostRepository
	now    func() time.Time
}

func NewMaintenanceJob(log logrus.FieldLogger, tokens service.TokenService, posts repository.PostRepository) *MaintenanceJob {
	return &MaintenanceJob{
		log:    log.WithField("component", "maintenance"),
		tokens: tokens,
		posts:  posts,
		now:    time.Now,
	}
}

// Run is the cron entry point.
func (c *MaintenanceJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c.PruneTokens(ctx)
	c.FailStalePosts(ctx)
}

func (c *MaintenanceJob) PruneTokens(ctx context.Context) {
	n, err := c.tokens.PruneExpired(ctx)
	if err != nil {
		c.log.WithError(err).Error("Pruning expired tokens failed")
		return
	}
	if n > 0 {
		c.log.WithField("count", n).Info("Pruned expired tokens")
	}
}

func (c *MaintenanceJob) FailStalePosts(ctx context.Context) {
	n, err := c.posts.FailStaleProcessing(ctx, c.now().Add(-StaleProcessingAfter))
	if err != nil {
		c.log.WithError(err).Error("Failing stale posts failed")
		return
	}
	if n > 0 {
		c.log.WithField("count", n).Warn("Marked stale processing posts as failed")
	}
}
