package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// PayloadMetadata carries optional audit fields describing where the diff
// was taken from.
type PayloadMetadata struct {
	Org       string `json:"org"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha"`
}

// DiffPayload is the request body of a diff submission.
type DiffPayload struct {
	EventID     string           `json:"event_id"`
	DiffContent string           `json:"diff_content"`
	Metadata    *PayloadMetadata `json:"metadata,omitempty"`
}

// BuildPayload pairs an event id with diff text. Bytes that are not valid
// UTF-8 are replaced with U+FFFD so the encoded body is always valid JSON.
func BuildPayload(eventUID, diff string) DiffPayload {
	return DiffPayload{
		EventID:     eventUID,
		DiffContent: strings.ToValidUTF8(diff, "\uFFFD"),
	}
}

// WithMetadata returns a copy of p carrying m.
func (p DiffPayload) WithMetadata(m PayloadMetadata) DiffPayload {
	p.Metadata = &m
	return p
}

// Encode serializes p. HTML characters are left unescaped so the diff reads
// naturally in server logs.
func (p DiffPayload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, goerr.Wrap(err, "failed to encode diff payload", goerr.V("event_id", p.EventID))
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
