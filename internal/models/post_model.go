package models

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusProcessing ScheduleStatus = "processing"
)

type Post struct {
	ID             int64          `db:"id" json:"id"`
	UUID           string         `db:"uuid" json:"uuid"`
	Status         PostStatus     `db:"status" json:"status"`
	ScheduleStatus ScheduleStatus `db:"schedule_status" json:"schedule_status"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	Accounts []*Account     `db:"-" json:"accounts"`
	Versions []*PostVersion `db:"-" json:"versions"`
	Tags     []*Tag         `db:"-" json:"tags"`
}

// IsInHistory reports whether the post reached a terminal status.
func (p *Post) IsInHistory() bool {
	return p.Status == PostStatusPublished || p.Status == PostStatusFailed
}

// IsScheduleProcessing reports whether a publish attempt is running.
func (p *Post) IsScheduleProcessing() bool {
	return p.ScheduleStatus == ScheduleStatusProcessing
}

func (p *Post) AccountIDs() []int64 {
	ids := make([]int64, 0, len(p.Accounts))
	for _, a := range p.Accounts {
		ids = append(ids, a.ID)
	}
	return ids
}

func (p *Post) TagIDs() []int64 {
	ids := make([]int64, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// VersionFor returns the version targeting the account, falling back to
// the original version.
func (p *Post) VersionFor(accountID int64) *PostVersion {
	var original *PostVersion
	for _, v := range p.Versions {
		if v.AccountID != nil && *v.AccountID == accountID {
			return v
		}
		if v.IsOriginal && original == nil {
			original = v
		}
	}
	return original
}

type PostVersion struct {
	ID         int64          `db:"id" json:"id"`
	PostID     int64          `db:"post_id" json:"-"`
	AccountID  *int64         `db:"account_id" json:"account_id"`
	IsOriginal bool           `db:"is_original" json:"is_original"`
	Content    []ContentBlock `db:"content" json:"content"`
}

type ContentBlock struct {
	Body  string  `json:"body"`
	Media []int64 `json:"media"`
}
