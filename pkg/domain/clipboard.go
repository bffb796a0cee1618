package domain

import "strings"

// ContentKind classifies one unit of shared content.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindImage    ContentKind = "image"
	KindAudio    ContentKind = "audio"
	KindVideo    ContentKind = "video"
	KindLexiNote ContentKind = "lexi_note"
)

// ParseContentKind maps a wire value to a known kind, defaulting to text.
// The server sends the kind in the envelope's "extra" field and older
// clients omit it entirely.
func ParseContentKind(s string) ContentKind {
	switch ContentKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindImage:
		return KindImage
	case KindAudio:
		return KindAudio
	case KindVideo:
		return KindVideo
	case KindLexiNote:
		return KindLexiNote
	default:
		return KindText
	}
}

// Media reports whether the kind refers to an uploaded file rather than
// inline text. Media shares are persisted server-side on arrival, so the
// client follows them with a notes reload.
func (k ContentKind) Media() bool {
	return k == KindImage || k == KindAudio || k == KindVideo
}

// ClipboardItem is one unit of shared content in the beam space. Items are
// immutable after creation except for removal; a fresh item replaces any
// edit.
type ClipboardItem struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Kind      ContentKind `json:"extra"`
	Persisted bool        `json:"is_beam_note,omitempty"`
	Note      *Note       `json:"note_data,omitempty"`
}

// Device describes one connected peer in the beam, pushed by the server as
// part of the authed_users event and replaced wholesale each time.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
