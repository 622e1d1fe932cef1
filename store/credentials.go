package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FindCredential returns the credential stored for (userID, provider), or
// ErrNotFound when none exists.
func (s *SQLiteStore) FindCredential(ctx context.Context, userID, provider string) (*Credential, error) {
	var cred Credential
	err := s.db.GetContext(ctx, &cred,
		"SELECT * FROM oauth_credentials WHERE user_id = ? AND provider = ?",
		userID, provider,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credential for user %s provider %s: %w", userID, provider, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding credential: %w", err)
	}
	return &cred, nil
}

// UpsertCredential writes the credential keyed by (UserID, Provider),
// generating a row ID on first insert.
func (s *SQLiteStore) UpsertCredential(ctx context.Context, cred *Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	cred.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_credentials (
			id, user_id, provider, access_token, refresh_token, expires_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		cred.ID, cred.UserID, cred.Provider,
		cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}
