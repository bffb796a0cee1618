package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Note is a clipboard item that has been saved server-side ("beam note")
// and is retrievable via REST, as opposed to a purely live push.
type Note struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title,omitempty"`
	Content     string          `json:"content,omitempty"`
	NoteType    string          `json:"note_type"`
	JSONContent json.RawMessage `json:"json_content,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Display returns the best human-readable text for the note: content,
// falling back to the title, falling back to a placeholder.
func (n *Note) Display() string {
	if n.Content != "" {
		return n.Content
	}
	if n.Title != "" {
		return n.Title
	}
	return "Untitled Note"
}

// Item converts a persisted note into its clipboard-item form.
func (n Note) Item() ClipboardItem {
	return ClipboardItem{
		ID:        n.ID.String(),
		Content:   n.Display(),
		Kind:      ParseContentKind(n.NoteType),
		Persisted: true,
		Note:      &n,
	}
}
