package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mixpost-api/internal/errs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository"
	"github.com/maheshrc27/mixpost-api/internal/transfer"
	"github.com/sirupsen/logrus"
)

// PublishDelay is how far ahead "publish now" schedules a post.
const PublishDelay = 30 * time.Second

const msgPostNotFound = "Post not found"

// PostScheduler hands a scheduled post to the publishing queue.
type PostScheduler interface {
	SchedulePost(ctx context.Context, postID int64, at time.Time) error
}

type PostService interface {
	List(ctx context.Context, q *transfer.PostListQuery, page repository.Page) ([]*models.Post, int, error)
	Get(ctx context.Context, ref string) (*models.Post, error)
	Create(ctx context.Context, in *transfer.PostInput) (*models.Post, error)
	Update(ctx context.Context, ref string, in *transfer.PostInput) (*models.Post, error)
	Delete(ctx context.Context, ref string) error
	BulkDelete(ctx context.Context, uuids []string) (int, error)
	Schedule(ctx context.Context, ref string, in *transfer.PostSchedule) (*models.Post, error)
	Publish(ctx context.Context, ref string) (*models.Post, error)
	Duplicate(ctx context.Context, ref string) (*models.Post, error)
}

type postService struct {
	log       logrus.FieldLogger
	loc       *time.Location
	tx        repository.Transactor
	posts     repository.PostRepository
	accounts  repository.AccountRepository
	tags      repository.TagRepository
	pa        repository.PostAccountRepository
	pt        repository.PostTagRepository
	versions  repository.PostVersionRepository
	scheduler PostScheduler
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPostService(
	log logrus.FieldLogger,
	loc *time.Location,
	tx repository.Transactor,
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	tags repository.TagRepository,
	pa repository.PostAccountRepository,
	pt repository.PostTagRepository,
	versions repository.PostVersionRepository,
	scheduler PostScheduler,
	m *metrics.Metrics) PostService {
	return &postService{
		log:       log.WithField("component", "posts"),
		loc:       loc,
		tx:        tx,
		posts:     posts,
		accounts:  accounts,
		tags:      tags,
		pa:        pa,
		pt:        pt,
		versions:  versions,
		scheduler: scheduler,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *postService) List(ctx context.Context, q *transfer.PostListQuery, page repository.Page) ([]*models.Post, int, error) {
	filter := repository.PostFilter{
		Status:     models.PostStatus(q.Status),
		Keyword:    q.Keyword,
		AccountIDs: q.Accounts,
		TagIDs:     q.Tags,
	}

	posts, total, err := s.posts.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	if err := s.loadRelations(ctx, posts...); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *postService) Get(ctx context.Context, ref string) (*models.Post, error) {
	post, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// find loads the bare post row or returns a 404.
func (s *postService) find(ctx context.Context, raw string) (*models.Post, error) {
	r, ok := parseRef(raw)
	if !ok {
		return nil, errs.NewNotFoundError(msgPostNotFound)
	}

	var post *models.Post
	var err error
	if r.uuid != "" {
		post, err = s.posts.GetByUUID(ctx, r.uuid)
	} else {
		post, err = s.posts.GetByID(ctx, r.id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	if post == nil {
		return nil, errs.NewNotFoundError(msgPostNotFound)
	}
	return post, nil
}

func (s *postService) loadRelations(ctx context.Context, posts ...*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	accounts, err := s.accounts.ListByPostIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading post accounts: %w", err)
	}
	versions, err := s.versions.ListByPostIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading post versions: %w", err)
	}
	tags, err := s.tags.ListByPostIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading post tags: %w", err)
	}

	for _, p := range posts {
		p.Accounts = orEmpty(accounts[p.ID])
		p.Versions = orEmpty(versions[p.ID])
		p.Tags = orEmpty(tags[p.ID])
	}
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// checkReferences rejects account or tag ids that do not exist.
func (s *postService) checkReferences(ctx context.Context, accountIDs, tagIDs []int64) error {
	fields := errs.Fields{}

	found, err := s.accounts.ExistingIDs(ctx, accountIDs)
	if err != nil {
		return fmt.Errorf("checking accounts: %w", err)
	}
	if missingIDs(accountIDs, found) {
		fields["accounts"] = []string{"The selected accounts are invalid."}
	}

	found, err = s.tags.ExistingIDs(ctx, tagIDs)
	if err != nil {
		return fmt.Errorf("checking tags: %w", err)
	}
	if missingIDs(tagIDs, found) {
		fields["tags"] = []string{"The selected tags are invalid."}
	}

	if len(fields) > 0 {
		return errs.NewValidationErrors(fields)
	}
	return nil
}

func versionsFromInput(in []transfer.PostVersionInput) []*models.PostVersion {
	versions := make([]*models.PostVersion, 0, len(in))
	for _, v := range in {
		accountID := v.AccountID
		if accountID != nil && *accountID == 0 {
			accountID = nil
		}

		content := make([]models.ContentBlock, 0, len(v.Content))
		for _, c := range v.Content {
			media := c.Media
			if media == nil {
				media = []int64{}
			}
			content = append(content, models.ContentBlock{Body: c.Body, Media: media})
		}

		versions = append(versions, &models.PostVersion{
			AccountID:  accountID,
			IsOriginal: v.IsOriginal,
			Content:    content,
		})
	}
	return versions
}

func (s *postService) Create(ctx context.Context, in *transfer.PostInput) (*models.Post, error) {
	accountIDs := uniqueIDs(in.Accounts)
	tagIDs := uniqueIDs(in.Tags)

	if err := s.checkReferences(ctx, accountIDs, tagIDs); err != nil {
		return nil, err
	}

	scheduledAt, err := toUTC(in.Date, in.Time, s.loc)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UUID:           uuid.NewString(),
		Status:         models.PostStatusDraft,
		ScheduleStatus: models.ScheduleStatusPending,
		ScheduledAt:    scheduledAt,
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.posts.Create(ctx, tx, post); err != nil {
			return err
		}
		if err := s.pa.Attach(ctx, tx, post.ID, accountIDs); err != nil {
			return err
		}
		if err := s.pt.Attach(ctx, tx, post.ID, tagIDs); err != nil {
			return err
		}
		return s.versions.CreateMany(ctx, tx, post.ID, versionsFromInput(in.Versions))
	})
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.log.WithField("post", post.UUID).Info("Post created")
	return s.Get(ctx, post.UUID)
}

func (s *postService) Update(ctx context.Context, ref string, in *transfer.PostInput) (*models.Post, error) {
	post, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	guard := errs.Fields{}
	if post.IsInHistory() {
		guard["in_history"] = []string{"in_history"}
	}
	if post.IsScheduleProcessing() {
		guard["publishing"] = []string{"publishing"}
	}
	if len(guard) > 0 {
		return nil, errs.NewValidationErrors(guard)
	}

	accountIDs := uniqueIDs(in.Accounts)
	tagIDs := uniqueIDs(in.Tags)
	if err := s.checkReferences(ctx, accountIDs, tagIDs); err != nil {
		return nil, err
	}

	scheduledAt, err := toUTC(in.Date, in.Time, s.loc)
	if err != nil {
		return nil, err
	}

	if len(accountIDs) == 0 || scheduledAt == nil {
		post.Status = models.PostStatusDraft
	}
	post.ScheduledAt = scheduledAt

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		updated, err := s.posts.Update(ctx, tx, post)
		if err != nil {
			return err
		}
		if !updated {
			return errs.NewValidationErrors(errs.Fields{"publishing": {"publishing"}})
		}

		if err := s.pa.Sync(ctx, tx, post.ID, accountIDs); err != nil {
			return err
		}
		if err := s.pt.Sync(ctx, tx, post.ID, tagIDs); err != nil {
			return err
		}
		if err := s.versions.RemoveByPostID(ctx, tx, post.ID); err != nil {
			return err
		}
		return s.versions.CreateMany(ctx, tx, post.ID, versionsFromInput(in.Versions))
	})
	if err != nil {
		if _, ok := errs.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("updating post: %w", err)
	}

	// A post that stays scheduled needs a task for its new instant;
	// tasks for the old instant no longer match and are skipped.
	if post.Status == models.PostStatusScheduled && post.ScheduledAt != nil {
		if err := s.enqueue(ctx, post.ID, *post.ScheduledAt, "update"); err != nil {
			return nil, err
		}
	}

	s.log.WithField("post", post.UUID).Info("Post updated")
	return s.Get(ctx, post.UUID)
}

// checkMutable returns the conflict for verb ("delete", "schedule", ...)
// when the post can no longer change.
func checkMutable(post *models.Post, verb string) error {
	if post.IsInHistory() {
		return errs.NewConflictError("Cannot " + verb + " posts that have already been published or failed")
	}
	if post.IsScheduleProcessing() {
		return errs.NewConflictError(processingConflict(verb))
	}
	return nil
}

func processingConflict(verb string) string {
	return "Cannot " + verb + " posts that are currently being published"
}

func (s *postService) Delete(ctx context.Context, ref string) error {
	post, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := checkMutable(post, "delete"); err != nil {
		return err
	}

	removed, err := s.posts.Remove(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if !removed {
		return errs.NewConflictError(processingConflict("delete"))
	}

	s.log.WithField("post", post.UUID).Info("Post deleted")
	return nil
}

func (s *postService) BulkDelete(ctx context.Context, uuids []string) (int, error) {
	posts, err := s.posts.ListByUUIDs(ctx, validUUIDs(uuids))
	if err != nil {
		return 0, fmt.Errorf("listing posts: %w", err)
	}

	deleted := 0
	for _, post := range posts {
		if post.IsInHistory() || post.IsScheduleProcessing() {
			continue
		}

		removed, err := s.posts.Remove(ctx, post.ID)
		if err != nil {
			return deleted, fmt.Errorf("deleting post %s: %w", post.UUID, err)
		}
		if removed {
			deleted++
		}
	}

	s.log.WithField("count", deleted).Info("Posts bulk deleted")
	return deleted, nil
}

func (s *postService) Schedule(ctx context.Context, ref string, in *transfer.PostSchedule) (*models.Post, error) {
	post, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(post, "schedule"); err != nil {
		return nil, err
	}

	at, err := toUTC(in.Date, in.Time, s.loc)
	if err != nil {
		return nil, err
	}
	if at == nil || !at.After(s.now()) {
		return nil, errs.NewValidationError("date", "The scheduled date and time must be in the future.")
	}

	return s.schedule(ctx, post, *at, "schedule")
}

func (s *postService) Publish(ctx context.Context, ref string) (*models.Post, error) {
	post, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(post, "publish"); err != nil {
		return nil, err
	}
	if len(post.Accounts) == 0 {
		return nil, errs.NewConflictError("Cannot publish posts without any accounts")
	}

	return s.schedule(ctx, post, s.now().UTC().Add(PublishDelay), "publish")
}

func (s *postService) schedule(ctx context.Context, post *models.Post, at time.Time, trigger string) (*models.Post, error) {
	at = at.Truncate(time.Microsecond)

	scheduled, err := s.posts.SetScheduled(ctx, post.ID, at)
	if err != nil {
		return nil, fmt.Errorf("scheduling post: %w", err)
	}
	if !scheduled {
		return nil, errs.NewConflictError(processingConflict(trigger))
	}

	if err := s.enqueue(ctx, post.ID, at, trigger); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"post": post.UUID, "at": at}).Info("Post scheduled")
	return s.Get(ctx, post.UUID)
}

func (s *postService) enqueue(ctx context.Context, postID int64, at time.Time, trigger string) error {
	if err := s.scheduler.SchedulePost(ctx, postID, at); err != nil {
		return fmt.Errorf("enqueueing post %d: %w", postID, err)
	}
	s.metrics.RecordPostScheduled(trigger)
	return nil
}

func (s *postService) Duplicate(ctx context.Context, ref string) (*models.Post, error) {
	source, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UUID:           uuid.NewString(),
		Status:         models.PostStatusDraft,
		ScheduleStatus: models.ScheduleStatusPending,
	}

	versions := make([]*models.PostVersion, 0, len(source.Versions))
	for _, v := range source.Versions {
		versions = append(versions, &models.PostVersion{
			AccountID:  v.AccountID,
			IsOriginal: v.IsOriginal,
			Content:    append([]models.ContentBlock(nil), v.Content...),
		})
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.posts.Create(ctx, tx, post); err != nil {
			return err
		}
		if err := s.pa.Attach(ctx, tx, post.ID, source.AccountIDs()); err != nil {
			return err
		}
		if err := s.pt.Attach(ctx, tx, post.ID, source.TagIDs()); err != nil {
			return err
		}
		return s.versions.CreateMany(ctx, tx, post.ID, versions)
	})
	if err != nil {
		return nil, fmt.Errorf("duplicating post: %w", err)
	}

	s.log.WithFields(logrus.Fields{"source": source.UUID, "post": post.UUID}).Info("Post duplicated")
	return s.Get(ctx, post.UUID)
}
