package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/sirupsen/logrus"
)

// concurrency bounds how many accounts of one post publish at once.
const concurrency = 10

type Queue struct {
	log       logrus.FieldLogger
	posts     repository.PostRepository
	accounts  repository.AccountRepository
	versions  repository.PostVersionRepository
	pa        repository.PostAccountRepository
	publisher service.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewQueue(
	log logrus.FieldLogger,
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	versions repository.PostVersionRepository,
	pa repository.PostAccountRepository,
	publisher service.Publisher,
	m *metrics.Metrics) *Queue {
	return &Queue{
		log:       log.WithField("component", "worker"),
		posts:     posts,
		accounts:  accounts,
		versions:  versions,
		pa:        pa,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

func (j *Queue) HandleSchedulePostTask(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding payload: %v: %w", err, asynq.SkipRetry)
	}

	return j.PublishPost(ctx, payload.PostID, payload.ScheduledAt)
}

// PublishPost publishes the post if it is still scheduled for at. Every
// account is attempted; the post ends up published only when all succeed.
func (j *Queue) PublishPost(ctx context.Context, postID int64, at time.Time) error {
	log := j.log.WithField("post_id", postID)

	post, err := j.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("getting post: %w", err)
	}
	if post == nil || post.Status != models.PostStatusScheduled || post.ScheduledAt == nil || !post.ScheduledAt.Equal(at) {
		log.Debug("Skipping stale publish task")
		return nil
	}

	acquired, err := j.posts.AcquirePublishLease(ctx, postID, at)
	if err != nil {
		return fmt.Errorf("acquiring lease: %w", err)
	}
	if !acquired {
		log.Debug("Post already taken by another worker")
		return nil
	}

	status, err := j.publishAccounts(ctx, post, log)
	if err != nil {
		// Leave nothing in processing; the attempt counts as failed.
		status = models.PostStatusFailed
		log.WithError(err).Error("Publishing post failed")
	}

	if err := j.posts.FinishPublish(ctx, postID, status, j.now().UTC()); err != nil {
		return fmt.Errorf("finishing publish: %w", err)
	}

	j.metrics.RecordPostPublished(string(status))
	log.WithField("status", status).Info("Post publish finished")
	return nil
}

func (j *Queue) publishAccounts(ctx context.Context, post *models.Post, log logrus.FieldLogger) (models.PostStatus, error) {
	accounts, err := j.accounts.ListByPostIDs(ctx, []int64{post.ID})
	if err != nil {
		return "", fmt.Errorf("loading accounts: %w", err)
	}
	versions, err := j.versions.ListByPostIDs(ctx, []int64{post.ID})
	if err != nil {
		return "", fmt.Errorf("loading versions: %w", err)
	}
	post.Accounts = accounts[post.ID]
	post.Versions = versions[post.ID]

	if len(post.Accounts) == 0 {
		return models.PostStatusFailed, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	semaphore := make(chan struct{}, concurrency)

	publishTo := func(account *models.Account) {
		defer wg.Done()
		defer func() { <-semaphore }()

		result := &models.PostAccount{PostID: post.ID, AccountID: account.ID}

		providerPostID, err := j.publisher.Publish(ctx, account, post.VersionFor(account.ID))
		if err != nil {
			log.WithError(err).WithField("account_id", account.ID).Warn("Account publish failed")
			result.Errors, _ = json.Marshal([]string{err.Error()})
			mu.Lock()
			failed++
			mu.Unlock()
		} else if providerPostID != "" {
			result.ProviderPostID = &providerPostID
		}

		if err := j.pa.UpdateResult(ctx, result); err != nil {
			log.WithError(err).WithField("account_id", account.ID).Error("Saving publish result failed")
		}
	}

	for _, account := range post.Accounts {
		wg.Add(1)
		semaphore <- struct{}{}
		go publishTo(account)
	}
	wg.Wait()

	if failed > 0 {
		return models.PostStatusFailed, nil
	}
	return models.PostStatusPublished, nil
}
