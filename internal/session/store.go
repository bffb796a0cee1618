// Package session owns the persisted beam session descriptor: which beam
// this device is paired to, its key, and when it stops being trustworthy.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khaled-muhammad/moveit-cli/pkg/client"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// BeamAPI is the slice of the REST client the store needs.
type BeamAPI interface {
	CreateBeam(ctx context.Context) (*client.CreateBeamResponse, error)
	BeamNotes(ctx context.Context, beamID string) ([]domain.Note, error)
}

// Store persists the current session descriptor as a JSON file and decides
// when a saved session may be reused versus rotated.
type Store struct {
	api    BeamAPI
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.Session
}

// NewStore creates a store persisting to path (e.g. ~/.moveit/session.json).
func NewStore(api BeamAPI, path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:    api,
		path:   path,
		logger: logger.With(zap.String("component", "session")),
		now:    time.Now,
	}
}

// Current returns the active session, or nil when none is ready. Consumers
// must treat nil as "not ready" and keep the WebSocket gate closed.
func (s *Store) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetOrCreate returns a usable session: the persisted one when it is still
// fresh, otherwise a newly created beam. A saved beam that already has
// notes attached is treated as finished and rotated rather than rejoined.
func (s *Store) GetOrCreate(ctx context.Context) (*domain.Session, error) {
	if saved := s.load(); saved.Valid() && !saved.Expired(s.now()) {
		dirty, err := s.beamHasNotes(ctx, saved.BeamID)
		if err != nil {
			s.logger.Warn("beam freshness check failed, reusing saved session", zap.Error(err))
		}
		if !dirty {
			s.logger.Info("loaded saved session", zap.String("beam_id", saved.BeamID))
			s.setCurrent(saved)
			return saved, nil
		}
		s.logger.Info("saved beam already has notes, rotating", zap.String("beam_id", saved.BeamID))
	}
	return s.Rotate(ctx)
}

// Rotate always creates a fresh beam, replacing whatever was persisted.
func (s *Store) Rotate(ctx context.Context) (*domain.Session, error) {
	beam, err := s.api.CreateBeam(ctx)
	if err != nil {
		s.logger.Error("beam creation failed", zap.Error(err))
		return nil, fmt.Errorf("session.Rotate: %w", err)
	}
	sess := &domain.Session{
		BeamID:    beam.BeamID,
		BeamKey:   beam.BeamKey,
		BeamName:  beam.BeamName,
		ExpiresAt: s.now().Add(domain.SessionTTL),
	}
	if err := s.Set(sess); err != nil {
		return nil, fmt.Errorf("session.Rotate: %w", err)
	}
	s.logger.Info("beam created", zap.String("beam_id", sess.BeamID))
	return sess, nil
}

// Set replaces the active session and persists it. Used both after beam
// creation and when joining a scanned beam on a second device.
func (s *Store) Set(sess *domain.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("session.Set: invalid beam id %q", sess.BeamID)
	}
	s.setCurrent(sess)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session.Set: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session.Set: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session.Set: write: %w", err)
	}
	return nil
}

// Clear drops the active session and removes the persisted file. The
// transport treats this as an intentional disconnect.
func (s *Store) Clear() error {
	s.setCurrent(nil)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

func (s *Store) setCurrent(sess *domain.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

// load reads the persisted descriptor; any unreadable file is treated as
// absent.
func (s *Store) load() *domain.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("discarding unreadable session file", zap.Error(err))
		return nil
	}
	return &sess
}

func (s *Store) beamHasNotes(ctx context.Context, beamID string) (bool, error) {
	notes, err := s.api.BeamNotes(ctx, beamID)
	if err != nil {
		return false, err
	}
	return len(notes) > 0, nil
}
