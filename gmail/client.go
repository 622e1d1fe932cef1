package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user              = "me"
	defaultMaxResults = 50
)

// Client is the transport over the Gmail list/get/send operations. Every
// call resolves a fresh access token through the token manager, so a client
// can serve any user with a stored credential.
type Client struct {
	tokens *TokenManager
	log    *logrus.Entry

	// endpoint overrides the Gmail API base URL in tests.
	endpoint string
}

// NewClient builds a transport on top of the token manager.
func NewClient(tokens *TokenManager, log *logrus.Logger) *Client {
	return &Client{
		tokens: tokens,
		log:    log.WithField("component", "gmail.client"),
	}
}

func (c *Client) service(ctx context.Context, userID string) (*gmailapi.Service, error) {
	token, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	srv, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return srv, nil
}

// buildQuery joins the selected filter terms into one Gmail search string.
// An empty result is valid and matches everything.
func buildQuery(opts FetchOptions) string {
	var terms []string
	if opts.UnreadOnly {
		terms = append(terms, "is:unread")
	}
	if opts.Sender != "" {
		terms = append(terms, "from:"+opts.Sender)
	}
	if opts.Keywords != "" {
		terms = append(terms, opts.Keywords)
	}
	return strings.Join(terms, " ")
}

// ListAndFetch lists the message ids matching the filter, then fetches the
// full payload of each concurrently. The first fetch failure cancels the
// remaining fetches and aborts the whole batch with that error.
func (c *Client) ListAndFetch(ctx context.Context, userID string, opts FetchOptions) ([]EmailDetail, error) {
	srv, err := c.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	call := srv.Users.Messages.List(user).MaxResults(maxResults)
	if q := buildQuery(opts); q != "" {
		call = call.Q(q)
	}

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	details := make([]EmailDetail, len(list.Messages))
	g, gctx := errgroup.WithContext(ctx)
	for i, msg := range list.Messages {
		g.Go(func() error {
			full, err := srv.Users.Messages.Get(user, msg.Id).Format("full").Context(gctx).Do()
			if err != nil {
				return fmt.Errorf("fetching message %s: %w", msg.Id, err)
			}
			details[i] = parseMessage(full)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{"user": userID, "count": len(details)}).Debug("fetched messages")
	return details, nil
}

// Send submits one outbound message through the raw-message endpoint,
// threading it under InReplyTo when set.
func (c *Client) Send(ctx context.Context, userID string, req SendRequest) (*SendResult, error) {
	srv, err := c.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	envelope := strings.Join([]string{
		"To: " + req.To,
		"Subject: " + req.Subject,
		"Content-Type: text/plain; charset=utf-8",
		"",
		req.Body,
	}, "\n")

	msg := &gmailapi.Message{
		Raw: base64.RawURLEncoding.EncodeToString([]byte(envelope)),
	}
	if req.InReplyTo != "" {
		msg.ThreadId = req.InReplyTo
	}

	sent, err := srv.Users.Messages.Send(user, msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	c.log.WithFields(logrus.Fields{"user": userID, "id": sent.Id}).Info("message sent")
	return &SendResult{ID: sent.Id, ThreadID: sent.ThreadId, Labels: sent.LabelIds}, nil
}

func parseMessage(msg *gmailapi.Message) EmailDetail {
	detail := EmailDetail{
		EmailID: msg.Id,
		Snippet: msg.Snippet,
	}

	if msg.Payload == nil {
		detail.ReceivedAt = time.Now().UTC()
		return detail
	}

	var dateHeader string
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "from":
			detail.Sender = header.Value
		case "subject":
			detail.Subject = header.Value
		case "date":
			dateHeader = header.Value
		}
	}

	detail.ReceivedAt = parseDate(dateHeader)
	detail.Body = ExtractBody(msg.Payload)
	return detail
}

// dateFormats covers the Date header variants Gmail actually emits.
var dateFormats = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
}

func parseDate(value string) time.Time {
	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed
		}
	}
	return time.Now().UTC()
}
