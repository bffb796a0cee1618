package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// ParseJoinPayload decodes the pairing payload carried by a QR code or a
// shared join link. Two shapes are accepted:
//
//   - the full session JSON ({"beam_id": ..., "beam_key": ...})
//   - a URL of the form <origin>?beam_id=<uuid>
//
// A bare UUID is also taken as a beam id so it can be typed by hand.
// When no key is present BeamKey stays empty — the server treats a null
// key as a first join.
func ParseJoinPayload(payload string) (*domain.Session, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("session.ParseJoinPayload: empty payload")
	}

	if strings.HasPrefix(payload, "{") {
		var sess domain.Session
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			return nil, fmt.Errorf("session.ParseJoinPayload: bad session JSON: %w", err)
		}
		if !sess.Valid() {
			return nil, fmt.Errorf("session.ParseJoinPayload: %q is not a beam id", sess.BeamID)
		}
		return &sess, nil
	}

	if domain.IsValidUUIDv4(payload) {
		return &domain.Session{BeamID: payload}, nil
	}

	u, err := url.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("session.ParseJoinPayload: bad join URL: %w", err)
	}
	beamID := u.Query().Get("beam_id")
	if !domain.IsValidUUIDv4(beamID) {
		return nil, fmt.Errorf("session.ParseJoinPayload: %q is not a beam id", beamID)
	}
	return &domain.Session{
		BeamID:  beamID,
		BeamKey: u.Query().Get("beam_key"),
	}, nil
}

// JoinURL renders the shareable pairing link for a session.
func JoinURL(origin string, sess *domain.Session) string {
	return origin + "?beam_id=" + url.QueryEscape(sess.BeamID)
}
