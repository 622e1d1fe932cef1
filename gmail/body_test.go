package gmail

import (
	"encoding/base64"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func leaf(mimeType, content string) *gmailapi.MessagePart {
	return &gmailapi.MessagePart{
		MimeType: mimeType,
		Body:     &gmailapi.MessagePartBody{Data: b64(content)},
	}
}

func branch(mimeType string, parts ...*gmailapi.MessagePart) *gmailapi.MessagePart {
	return &gmailapi.MessagePart{
		MimeType: mimeType,
		Body:     &gmailapi.MessagePartBody{},
		Parts:    parts,
	}
}

func TestExtractBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload *gmailapi.MessagePart
		want    string
	}{
		{
			name:    "single part plain text",
			payload: leaf("text/plain", "hello world"),
			want:    "hello world",
		},
		{
			name: "plain text child of multipart",
			payload: branch("multipart/alternative",
				leaf("text/plain", "plain body"),
				leaf("text/html", "<p>html body</p>"),
			),
			want: "plain body",
		},
		{
			name: "html child when no plain text",
			payload: branch("multipart/alternative",
				leaf("text/html", "<p>html body</p>"),
			),
			want: "<p>html body</p>",
		},
		{
			name: "leaf three levels deep",
			payload: branch("multipart/mixed",
				branch("multipart/related",
					branch("multipart/alternative",
						leaf("text/plain", "deeply nested"),
					),
				),
			),
			want: "deeply nested",
		},
		{
			name: "attachment skipped before nested text",
			payload: branch("multipart/mixed",
				&gmailapi.MessagePart{MimeType: "application/pdf", Body: &gmailapi.MessagePartBody{}},
				branch("multipart/alternative",
					leaf("text/plain", "after attachment"),
				),
			),
			want: "after attachment",
		},
		{
			name: "no decodable leaf",
			payload: branch("multipart/mixed",
				&gmailapi.MessagePart{MimeType: "application/pdf", Body: &gmailapi.MessagePartBody{}},
			),
			want: "",
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    "",
		},
		{
			name: "unpadded base64url data",
			payload: &gmailapi.MessagePart{
				MimeType: "text/plain",
				Body: &gmailapi.MessagePartBody{
					Data: base64.RawURLEncoding.EncodeToString([]byte("unpadded?")),
				},
			},
			want: "unpadded?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractBody(tt.payload); got != tt.want {
				t.Errorf("ExtractBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
