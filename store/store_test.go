package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEmail(userID, emailID string, receivedAt time.Time) *CachedEmail {
	return &CachedEmail{
		UserID:     userID,
		EmailID:    emailID,
		Sender:     "alice@example.com",
		Subject:    "Subject " + emailID,
		Snippet:    "snippet",
		Body:       "body of " + emailID,
		Summary:    "summary of " + emailID,
		ReceivedAt: receivedAt,
	}
}

func TestUpsertEmailPreservesReplied(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := s.UpsertEmail(ctx, testEmail("u1", "m1", now)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.MarkReplied(ctx, "u1", "m1"); err != nil {
		t.Fatalf("mark replied: %v", err)
	}

	// Re-ingest with new content; replied must survive.
	updated := testEmail("u1", "m1", now)
	updated.Summary = "regenerated summary"
	if err := s.UpsertEmail(ctx, updated); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	emails, err := s.QueryEmails(ctx, "u1", EmailQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(emails) != 1 {
		t.Fatalf("got %d emails, want 1 (upsert must not duplicate)", len(emails))
	}
	if !emails[0].Replied {
		t.Error("replied flag was reset by upsert")
	}
	if emails[0].Summary != "regenerated summary" {
		t.Errorf("summary = %q, want regenerated summary", emails[0].Summary)
	}
}

func TestQueryEmailsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := testEmail("u1", "m1", base)
	middle := testEmail("u1", "m2", base.Add(time.Hour))
	middle.Sender = "bob@example.com"
	newest := testEmail("u1", "m3", base.Add(2*time.Hour))
	other := testEmail("u2", "m4", base.Add(3*time.Hour))

	for _, e := range []*CachedEmail{oldest, middle, newest, other} {
		if err := s.UpsertEmail(ctx, e); err != nil {
			t.Fatalf("upsert %s: %v", e.EmailID, err)
		}
	}
	if err := s.MarkReplied(ctx, "u1", "m3"); err != nil {
		t.Fatalf("mark replied: %v", err)
	}

	t.Run("descending order scoped to user", func(t *testing.T) {
		emails, err := s.QueryEmails(ctx, "u1", EmailQuery{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(emails) != 3 {
			t.Fatalf("got %d emails, want 3", len(emails))
		}
		for i, want := range []string{"m3", "m2", "m1"} {
			if emails[i].EmailID != want {
				t.Errorf("emails[%d] = %s, want %s", i, emails[i].EmailID, want)
			}
		}
	})

	t.Run("unreplied only", func(t *testing.T) {
		emails, err := s.QueryEmails(ctx, "u1", EmailQuery{UnrepliedOnly: true})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		for _, e := range emails {
			if e.Replied {
				t.Errorf("unreplied query returned replied email %s", e.EmailID)
			}
		}
		if len(emails) != 2 {
			t.Errorf("got %d emails, want 2", len(emails))
		}
	})

	t.Run("sender substring", func(t *testing.T) {
		emails, err := s.QueryEmails(ctx, "u1", EmailQuery{SenderContains: "bob"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(emails) != 1 || emails[0].EmailID != "m2" {
			t.Errorf("got %v, want just m2", emails)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		emails, err := s.QueryEmails(ctx, "u1", EmailQuery{Limit: 1})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(emails) != 1 || emails[0].EmailID != "m3" {
			t.Errorf("got %v, want just the newest", emails)
		}
	})
}

func TestMarkRepliedUnknownEmail(t *testing.T) {
	s := newTestStore(t)

	err := s.MarkReplied(context.Background(), "u1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FindCredential(ctx, "u1", "google")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound before insert", err)
	}

	cred := &Credential{
		UserID:       "u1",
		Provider:     "google",
		AccessToken:  "token-a",
		RefreshToken: "refresh-a",
		ExpiresAt:    expiry,
	}
	if err := s.UpsertCredential(ctx, cred); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if cred.ID == "" {
		t.Fatal("upsert did not assign a row id")
	}

	found, err := s.FindCredential(ctx, "u1", "google")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.AccessToken != "token-a" || found.RefreshToken != "refresh-a" {
		t.Errorf("found = %+v", found)
	}
	if !found.ExpiresAt.Equal(expiry) {
		t.Errorf("expiresAt = %v, want %v", found.ExpiresAt, expiry)
	}

	// Refresh path rewrites the same row.
	found.AccessToken = "token-b"
	found.ExpiresAt = expiry.Add(time.Hour)
	if err := s.UpsertCredential(ctx, found); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	again, err := s.FindCredential(ctx, "u1", "google")
	if err != nil {
		t.Fatalf("find after refresh: %v", err)
	}
	if again.AccessToken != "token-b" {
		t.Errorf("access token = %q, want token-b", again.AccessToken)
	}
	if again.ID != cred.ID {
		t.Errorf("row id changed on upsert: %s != %s", again.ID, cred.ID)
	}
}
