package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mailflow/ai"
	"mailflow/gmail"
	"mailflow/store"
)

// Transport abstracts the mail provider's list/fetch/send operations.
type Transport interface {
	ListAndFetch(ctx context.Context, userID string, opts gmail.FetchOptions) ([]gmail.EmailDetail, error)
	Send(ctx context.Context, userID string, req gmail.SendRequest) (*gmail.SendResult, error)
}

// Generator abstracts the text-generation collaborator.
type Generator interface {
	Summarize(ctx context.Context, body string) string
	DraftReply(ctx context.Context, p ai.ReplyPrompt) (string, error)
}

// EmailCache abstracts the persisted message cache.
type EmailCache interface {
	UpsertEmail(ctx context.Context, email *store.CachedEmail) error
	QueryEmails(ctx context.Context, userID string, q store.EmailQuery) ([]store.CachedEmail, error)
	MarkReplied(ctx context.Context, userID, emailID string) error
}

// ReplyRequest describes one outbound reply to a cached message.
type ReplyRequest struct {
	EmailID string
	To      string
	Subject string
	Body    string
}

// Deps wires the collaborators into the service.
type Deps struct {
	Transport Transport
	Generator Generator
	Cache     EmailCache
	Logger    *logrus.Logger
}

// Service exposes the caller-facing operations of the mail pipeline. Every
// operation takes an already-resolved userID; authentication of that id is
// the surrounding application's job.
type Service struct {
	transport Transport
	generator Generator
	cache     EmailCache
	log       *logrus.Entry
}

// New constructs the service from its dependencies.
func New(deps Deps) *Service {
	return &Service{
		transport: deps.Transport,
		generator: deps.Generator,
		cache:     deps.Cache,
		log:       deps.Logger.WithField("component", "service"),
	}
}

// FetchAndCache pulls matching messages from the provider, summarizes each,
// and upserts them into the cache keyed by (userID, emailID). Summarization
// failures degrade silently inside the generator; a cache write failure
// aborts the batch. Returns the fetched details.
func (s *Service) FetchAndCache(ctx context.Context, userID string, opts gmail.FetchOptions) ([]gmail.EmailDetail, error) {
	details, err := s.transport.ListAndFetch(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, detail := range details {
		g.Go(func() error {
			summary := s.generator.Summarize(gctx, detail.Body)
			err := s.cache.UpsertEmail(gctx, &store.CachedEmail{
				UserID:     userID,
				EmailID:    detail.EmailID,
				Sender:     detail.Sender,
				Subject:    detail.Subject,
				Snippet:    detail.Snippet,
				Body:       detail.Body,
				Summary:    summary,
				ReceivedAt: detail.ReceivedAt,
			})
			if err != nil {
				return fmt.Errorf("caching message %s: %w", detail.EmailID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": userID, "count": len(details)}).Info("messages cached")
	return details, nil
}

// CachedEmails reads back cached messages, newest first.
func (s *Service) CachedEmails(ctx context.Context, userID string, q store.EmailQuery) ([]store.CachedEmail, error) {
	return s.cache.QueryEmails(ctx, userID, q)
}

// MarkReplied flags one cached message as replied.
func (s *Service) MarkReplied(ctx context.Context, userID, emailID string) error {
	return s.cache.MarkReplied(ctx, userID, emailID)
}

// DraftReply generates a reply body for the given message metadata.
func (s *Service) DraftReply(ctx context.Context, p ai.ReplyPrompt) (string, error) {
	return s.generator.DraftReply(ctx, p)
}

// SendReply sends the reply threaded under the original message, then marks
// the original as replied.
func (s *Service) SendReply(ctx context.Context, userID string, req ReplyRequest) (*gmail.SendResult, error) {
	result, err := s.transport.Send(ctx, userID, gmail.SendRequest{
		To:        req.To,
		Subject:   "Re: " + req.Subject,
		Body:      req.Body,
		InReplyTo: req.EmailID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.MarkReplied(ctx, userID, req.EmailID); err != nil {
		return nil, fmt.Errorf("reply sent but not recorded: %w", err)
	}
	return result, nil
}
