package gmail

import "time"

// EmailDetail holds the essential information extracted from one Gmail
// message. It is transient: produced by ListAndFetch, consumed by the
// summarizer and the cache, then discarded.
type EmailDetail struct {
	EmailID    string
	Sender     string
	Subject    string
	Snippet    string
	Body       string
	ReceivedAt time.Time
}

// FetchOptions selects which messages ListAndFetch pulls from the mailbox.
type FetchOptions struct {
	MaxResults int64
	UnreadOnly bool
	Sender     string
	Keywords   string
}

// SendRequest describes one outbound message. InReplyTo, when set, is the
// thread the provider should attach the message to.
type SendRequest struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string
}

// SendResult is the provider's acknowledgement of a sent message.
type SendResult struct {
	ID       string
	ThreadID string
	Labels   []string
}
