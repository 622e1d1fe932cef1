package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const defaultQueryLimit = 50

// UpsertEmail writes or overwrites the cache row keyed by (UserID, EmailID).
// Content fields and received_at are always updated; replied is left alone
// so re-ingesting a message never clears its reply state.
func (s *SQLiteStore) UpsertEmail(ctx context.Context, email *CachedEmail) error {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_cache (
			user_id, email_id, sender, subject, snippet, body, summary,
			received_at, replied, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (user_id, email_id) DO UPDATE SET
			sender = excluded.sender,
			subject = excluded.subject,
			snippet = excluded.snippet,
			body = excluded.body,
			summary = excluded.summary,
			received_at = excluded.received_at,
			updated_at = excluded.updated_at`,
		email.UserID, email.EmailID, email.Sender, email.Subject,
		email.Snippet, email.Body, email.Summary,
		email.ReceivedAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting email %s: %w", email.EmailID, err)
	}
	return nil
}

// QueryEmails returns the user's cached emails matching the query, newest
// first, truncated to the limit (default 50).
func (s *SQLiteStore) QueryEmails(ctx context.Context, userID string, q EmailQuery) ([]CachedEmail, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	builder := sq.Select(
		"user_id", "email_id", "sender", "subject", "snippet", "body",
		"summary", "received_at", "replied", "created_at", "updated_at",
	).
		From("email_cache").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("received_at DESC").
		Limit(uint64(limit))

	if q.UnrepliedOnly {
		builder = builder.Where(sq.Eq{"replied": false})
	}
	if q.SenderContains != "" {
		builder = builder.Where(sq.Like{"sender": "%" + q.SenderContains + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building email query: %w", err)
	}

	var emails []CachedEmail
	if err := s.db.SelectContext(ctx, &emails, query, args...); err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	return emails, nil
}

// MarkReplied sets the replied flag on one cached email. Returns ErrNotFound
// when the row does not exist; the flag is never cleared once set.
func (s *SQLiteStore) MarkReplied(ctx context.Context, userID, emailID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE email_cache SET replied = 1, updated_at = ? WHERE user_id = ? AND email_id = ?",
		time.Now().UTC(), userID, emailID,
	)
	if err != nil {
		return fmt.Errorf("marking email %s replied: %w", emailID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("email %s: %w", emailID, ErrNotFound)
	}
	return nil
}
