package models

import (
	"encoding/json"
	"time"
)

type Account struct {
	ID         int64           `db:"id" json:"id"`
	UUID       string          `db:"uuid" json:"uuid"`
	Name       string          `db:"name" json:"name"`
	Username   string          `db:"username" json:"username"`
	Provider   string          `db:"provider" json:"provider"`
	ProviderID string          `db:"provider_id" json:"provider_id"`
	Authorized bool            `db:"authorized" json:"authorized"`
	Image      *string         `db:"image" json:"image"`
	Data       json.RawMessage `db:"data" json:"data"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`

	// Set only when the account was loaded through a post.
	*AccountPivot
}

// AccountPivot holds the per-post publishing result of an account.
type AccountPivot struct {
	Errors         json.RawMessage `db:"errors" json:"errors"`
	ProviderPostID *string         `db:"provider_post_id" json:"provider_post_id"`
}

type PostAccount struct {
	PostID         int64           `db:"post_id"`
	AccountID      int64           `db:"account_id"`
	Errors         json.RawMessage `db:"errors"`
	ProviderPostID *string         `db:"provider_post_id"`
}
