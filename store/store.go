package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup or update targets a row that does
// not exist.
var ErrNotFound = errors.New("not found")

// Credential is one OAuth credential record. There is at most one active
// record per (UserID, Provider); only the token manager mutates it.
type Credential struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Provider     string    `db:"provider"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CachedEmail is one ingested message, keyed by (UserID, EmailID).
// Replied starts false and is never reset once set.
type CachedEmail struct {
	UserID     string    `db:"user_id"`
	EmailID    string    `db:"email_id"`
	Sender     string    `db:"sender"`
	Subject    string    `db:"subject"`
	Snippet    string    `db:"snippet"`
	Body       string    `db:"body"`
	Summary    string    `db:"summary"`
	ReceivedAt time.Time `db:"received_at"`
	Replied    bool      `db:"replied"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// EmailQuery controls filtering for cached-email reads. Results are always
// ordered by received_at descending.
type EmailQuery struct {
	UnrepliedOnly  bool
	SenderContains string
	Limit          int
}
