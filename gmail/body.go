package gmail

import (
	"encoding/base64"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// ExtractBody walks a message's content tree and returns the first decodable
// text body. A part either carries inline base64url data or a list of child
// parts; payload trees can nest arbitrarily deep (multipart/alternative
// inside multipart/mixed and so on), so the walk recurses without a depth
// assumption. Returns "" when no decodable leaf exists.
func ExtractBody(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}

	if part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}

	for _, child := range part.Parts {
		if isTextPart(child) && child.Body != nil && child.Body.Data != "" {
			return decodeBase64URL(child.Body.Data)
		}
		if nested := ExtractBody(child); nested != "" {
			return nested
		}
	}

	return ""
}

func isTextPart(part *gmailapi.MessagePart) bool {
	mime := strings.ToLower(part.MimeType)
	return mime == "text/plain" || mime == "text/html"
}

// decodeBase64URL handles both padded and unpadded base64url, since the API
// is inconsistent about padding.
func decodeBase64URL(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
