package domain

import "time"

// Session is the locally persisted descriptor of the current beam: the
// ephemeral pairing session both devices join to exchange content.
type Session struct {
	BeamID    string    `json:"beam_id"`
	BeamKey   string    `json:"beam_key,omitempty"`
	BeamName  string    `json:"beam_name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionTTL is how long a freshly created beam session stays usable.
const SessionTTL = 24 * time.Hour

// Valid reports whether the session carries a well-formed beam id.
func (s *Session) Valid() bool {
	return s != nil && IsValidUUIDv4(s.BeamID)
}

// Expired reports whether the session's expiry has passed at the given time.
// A zero ExpiresAt never expires (joined sessions have no local expiry).
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
