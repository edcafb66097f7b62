package transfer

import "time"

type TokenCreation struct {
	Email          string   `json:"email" validate:"required,email,max=255"`
	Password       string   `json:"password" validate:"required"`
	TokenName      string   `json:"token_name" validate:"required,max=255"`
	Abilities      []string `json:"abilities" validate:"omitempty,dive,required"`
	ExpiresAt      string   `json:"expires_at" validate:"omitempty,datetime=2006-01-02 15:04:05"`
	RevokeExisting bool     `json:"revoke_existing"`
}

func (TokenCreation) ValidationMessages() map[string]string {
	return map[string]string{
		"email.required":      "Email address is required",
		"email.email":         "Please provide a valid email address",
		"password.required":   "Password is required",
		"token_name.required": "Token name is required",
		"token_name.max":      "Token name must not exceed 255 characters",
		"expires_at.datetime": "Expiration date must be in format: Y-m-d H:i:s",
	}
}

type TokenCreated struct {
	Token     string     `json:"token"`
	TokenName string     `json:"token_name"`
	TokenType string     `json:"token_type"`
	Abilities []string   `json:"abilities"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type TokenInfo struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Abilities  []string   `json:"abilities"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
