package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseContentKind(t *testing.T) {
	tests := []struct {
		in   string
		want ContentKind
	}{
		{"text", KindText},
		{"image", KindImage},
		{"audio", KindAudio},
		{"video", KindVideo},
		{"lexi_note", KindLexiNote},
		{"IMAGE", KindImage},
		{" video ", KindVideo},
		{"", KindText},
		{"spreadsheet", KindText},
	}
	for _, tt := range tests {
		if got := ParseContentKind(tt.in); got != tt.want {
			t.Errorf("ParseContentKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentKindMedia(t *testing.T) {
	for _, k := range []ContentKind{KindImage, KindAudio, KindVideo} {
		if !k.Media() {
			t.Errorf("%q.Media() = false, want true", k)
		}
	}
	for _, k := range []ContentKind{KindText, KindLexiNote} {
		if k.Media() {
			t.Errorf("%q.Media() = true, want false", k)
		}
	}
}

func TestNoteItem(t *testing.T) {
	id := uuid.New()
	n := Note{
		ID:        id,
		Title:     "groceries",
		Content:   "milk, eggs",
		NoteType:  "text",
		CreatedAt: time.Now(),
	}

	item := n.Item()
	if item.ID != id.String() {
		t.Errorf("item.ID = %q, want %q", item.ID, id.String())
	}
	if !item.Persisted {
		t.Error("item.Persisted = false, want true")
	}
	if item.Content != "milk, eggs" {
		t.Errorf("item.Content = %q, want content over title", item.Content)
	}
	if item.Note == nil || item.Note.Title != "groceries" {
		t.Error("item.Note should carry the source note")
	}
}

func TestNoteDisplayFallbacks(t *testing.T) {
	tests := []struct {
		name string
		note Note
		want string
	}{
		{"content wins", Note{Title: "t", Content: "c"}, "c"},
		{"title fallback", Note{Title: "t"}, "t"},
		{"placeholder", Note{}, "Untitled Note"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.note.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionValidAndExpired(t *testing.T) {
	now := time.Now()

	var nilSession *Session
	if nilSession.Valid() {
		t.Error("nil session should not be valid")
	}
	if !nilSession.Expired(now) {
		t.Error("nil session should be expired")
	}

	s := &Session{BeamID: "3fa85f64-5717-4562-b3fc-2c963f66afa6", ExpiresAt: now.Add(time.Hour)}
	if !s.Valid() {
		t.Error("session with v4 beam id should be valid")
	}
	if s.Expired(now) {
		t.Error("session expiring in an hour should not be expired")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Error("session should expire after its deadline")
	}

	joined := &Session{BeamID: "3fa85f64-5717-4562-b3fc-2c963f66afa6"}
	if joined.Expired(now) {
		t.Error("joined session without local expiry should not expire")
	}

	bad := &Session{BeamID: "not-a-uuid"}
	if bad.Valid() {
		t.Error("session with malformed beam id should not be valid")
	}
}
