package gmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mailflow/config"
	"mailflow/store"
)

const providerGoogle = "google"

var (
	// ErrNoCredential means the user has never linked a Google account.
	ErrNoCredential = errors.New("no google credential for user")

	// ErrCredentialExpired means the stored token is expired and there is
	// no refresh token to renew it with.
	ErrCredentialExpired = errors.New("google credential expired and not refreshable")
)

// CredentialStore is the persistence the token manager needs.
type CredentialStore interface {
	FindCredential(ctx context.Context, userID, provider string) (*store.Credential, error)
	UpsertCredential(ctx context.Context, cred *store.Credential) error
}

// TokenManager guarantees a valid access token before any provider call,
// refreshing and persisting expired credentials on the way.
type TokenManager struct {
	oauth *oauth2.Config
	creds CredentialStore
	log   *logrus.Entry
	now   func() time.Time
}

// NewTokenManager wires the OAuth client registration against the Google
// token endpoint.
func NewTokenManager(cfg config.GoogleConfig, creds CredentialStore, log *logrus.Logger) *TokenManager {
	return &TokenManager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
		},
		creds: creds,
		log:   log.WithField("component", "gmail.token"),
		now:   time.Now,
	}
}

// AccessToken returns a valid access token for the user. An expired
// credential with a refresh token is renewed synchronously and the renewed
// token is persisted before returning. Concurrent callers may each trigger
// a redundant refresh; the store upsert is the only atomicity boundary.
func (m *TokenManager) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.creds.FindCredential(ctx, userID, providerGoogle)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("user %s: %w", userID, ErrNoCredential)
	}
	if err != nil {
		return "", err
	}

	if cred.ExpiresAt.After(m.now()) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		return "", fmt.Errorf("user %s: %w", userID, ErrCredentialExpired)
	}

	tok, err := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}

	cred.AccessToken = tok.AccessToken
	cred.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	if err := m.creds.UpsertCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("persisting refreshed credential: %w", err)
	}

	m.log.WithField("user", userID).Debug("access token refreshed")
	return tok.AccessToken, nil
}
