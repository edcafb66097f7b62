package models

import "time"

// AbilityAll grants every route.
const AbilityAll = "*"

type ApiToken struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"-"`
	Name       string     `db:"name" json:"name"`
	TokenHash  string     `db:"token" json:"-"`
	Abilities  []string   `db:"abilities" json:"abilities"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Can reports whether the token carries the given ability.
func (t *ApiToken) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == ability {
			return true
		}
	}
	return false
}

func (t *ApiToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
