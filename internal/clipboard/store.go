// Package clipboard maintains the in-memory ordered list of shared items
// for the active beam, merging three input streams: live WebSocket pushes,
// REST-fetched persisted notes, and deletions.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// ErrEmptyContent is returned when a paste action carries nothing to share.
var ErrEmptyContent = errors.New("clipboard is empty")

// Sender pushes outbound messages over the live connection. The WebSocket
// manager implements it; a nil sender means "not connected".
type Sender interface {
	ShareClipboard(content string, kind domain.ContentKind) error
	DeleteNote(content string) error
}

// NotesAPI is the slice of the REST client the store needs.
type NotesAPI interface {
	BeamNotes(ctx context.Context, beamID string) ([]domain.Note, error)
}

// Store reconciles the shared item list. Local state is eventually
// consistent with the server: a Share does not touch the list until the
// server's echo comes back through ApplyLive.
type Store struct {
	api    NotesAPI
	logger *zap.Logger

	mu        sync.Mutex
	sender    Sender
	items     []domain.ClipboardItem
	beamID    string
	gen       uint64 // bumped on beam switch and per reload; stale responses are dropped
	reloading bool
	dirty     bool
}

// NewStore creates an empty store backed by the REST notes endpoint.
func NewStore(api NotesAPI, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:    api,
		logger: logger.With(zap.String("component", "clipboard")),
	}
}

// SetSender wires the live connection in. Called once at startup and again
// on reconnection wiring; safe to leave nil in tests.
func (s *Store) SetSender(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// SetBeam switches the store to a new beam: persisted entries are dropped,
// live entries are kept only when the beam is unchanged, and any in-flight
// reload for the old beam is invalidated.
func (s *Store) SetBeam(beamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if beamID == s.beamID {
		return
	}
	s.beamID = beamID
	s.items = nil
}

// Items returns a snapshot of the current ordered list.
func (s *Store) Items() []domain.ClipboardItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ClipboardItem, len(s.items))
	copy(out, s.items)
	return out
}

// Share pushes content into the beam. Blank content is rejected, and text
// that exactly matches an existing item is silently dropped — the dedup
// invariant. The list itself is only updated by the server echo.
func (s *Store) Share(content string, kind domain.ContentKind) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	content = strings.TrimSpace(content)

	s.mu.Lock()
	sender := s.sender
	if kind == domain.KindText {
		for _, item := range s.items {
			if item.Content == content {
				s.mu.Unlock()
				s.logger.Debug("duplicate text share dropped")
				return nil
			}
		}
	}
	s.mu.Unlock()

	if sender == nil {
		return fmt.Errorf("clipboard.Share: not connected")
	}
	if err := sender.ShareClipboard(content, kind); err != nil {
		return fmt.Errorf("clipboard.Share: %w", err)
	}
	return nil
}

// ApplyLive appends an item pushed by the server with a freshly generated
// id. This is the echo path for Share and for peers' shares.
func (s *Store) ApplyLive(content string, kind domain.ContentKind) domain.ClipboardItem {
	item := domain.ClipboardItem{
		ID:      uuid.New().String(),
		Content: content,
		Kind:    kind,
	}
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item
}

// Remove optimistically drops the item locally and pushes the deletion.
// The server's delete_note echo follows with a reconciling reload.
func (s *Store) Remove(item domain.ClipboardItem) error {
	s.mu.Lock()
	sender := s.sender
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != item.ID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()

	if sender == nil {
		return fmt.Errorf("clipboard.Remove: not connected")
	}
	if err := sender.DeleteNote(item.Content); err != nil {
		return fmt.Errorf("clipboard.Remove: %w", err)
	}
	return nil
}

// RemoveByContent removes every item whose content matches exactly, and
// only those. This is the server delete_note path.
func (s *Store) RemoveByContent(content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.Content == content {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed
}

// Reload fetches the authoritative persisted-note list for the beam and
// replaces the persisted subset of the in-memory list, leaving live items
// untouched. Calls are single-flight per store: a reload requested while
// one is running is coalesced into a rerun, and a response whose
// generation went stale (beam switch, newer reload) is discarded instead
// of resurrecting old items.
func (s *Store) Reload(ctx context.Context, beamID string) error {
	s.mu.Lock()
	if beamID == "" || beamID != s.beamID {
		s.mu.Unlock()
		return nil
	}
	if s.reloading {
		s.dirty = true
		s.mu.Unlock()
		return nil
	}
	s.reloading = true
	gen := s.gen
	s.mu.Unlock()

	for {
		notes, err := s.api.BeamNotes(ctx, beamID)

		s.mu.Lock()
		if err != nil {
			s.reloading = false
			s.dirty = false
			s.mu.Unlock()
			return fmt.Errorf("clipboard.Reload: %w", err)
		}
		if gen == s.gen {
			s.replacePersistedLocked(notes)
			s.logger.Info("persisted notes reloaded",
				zap.String("beam_id", beamID), zap.Int("count", len(notes)))
		} else {
			s.logger.Debug("stale reload discarded", zap.String("beam_id", beamID))
		}
		rerun := s.dirty && gen == s.gen
		s.dirty = false
		if !rerun {
			s.reloading = false
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
	}
}

// replacePersistedLocked swaps the persisted subset for the fetched batch.
// Live entries keep their relative order ahead of the new batch.
func (s *Store) replacePersistedLocked(notes []domain.Note) {
	kept := make([]domain.ClipboardItem, 0, len(s.items)+len(notes))
	for _, it := range s.items {
		if !it.Persisted {
			kept = append(kept, it)
		}
	}
	for _, n := range notes {
		kept = append(kept, n.Item())
	}
	s.items = kept
}
