package beamws

import (
	"encoding/json"
	"fmt"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

// envelope is the wire shape of every beam channel message:
// {"type": ..., "message": ..., "extra": ..., "users": ...}.
type envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
	Extra   string          `json:"extra,omitempty"`
	Users   []domain.Device `json:"users,omitempty"`
}

// Message is the decoded, typed form of an inbound envelope.
type Message interface {
	message()
}

// AuthSuccess is the server's handshake verdict. The server emits both
// "auth_success" and the misspelled "auth_sucess"; both map here.
type AuthSuccess struct {
	Info string
}

// AuthedUsers replaces the connected-device list wholesale.
type AuthedUsers struct {
	Users []domain.Device
}

// ShareClipboard is a live content push, covering both the
// "share_clipboard" and "rec_clipboard" wire types.
type ShareClipboard struct {
	Content string
	Kind    domain.ContentKind
}

// DeleteNote asks the client to drop every item with matching content.
type DeleteNote struct {
	Content string
}

// BeamNotesLoaded acknowledges a server-side save of the beam's notes.
type BeamNotesLoaded struct {
	Raw json.RawMessage
}

// Unknown is any message type this client does not speak. Logged, ignored.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (AuthSuccess) message()     {}
func (AuthedUsers) message()     {}
func (ShareClipboard) message()  {}
func (DeleteNote) message()      {}
func (BeamNotesLoaded) message() {}
func (Unknown) message()         {}

// decodeMessage parses a raw frame into its typed variant.
func decodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("beamws: malformed frame: %w", err)
	}

	switch env.Type {
	case "auth_success", "auth_sucess": // server contract ships both spellings
		return AuthSuccess{Info: decodeContent(env.Message)}, nil
	case "authed_users":
		return AuthedUsers{Users: env.Users}, nil
	case "share_clipboard", "rec_clipboard":
		return ShareClipboard{
			Content: decodeContent(env.Message),
			Kind:    domain.ParseContentKind(env.Extra),
		}, nil
	case "delete_note":
		return DeleteNote{Content: decodeContent(env.Message)}, nil
	case "beam_notes_loaded":
		return BeamNotesLoaded{Raw: env.Message}, nil
	default:
		return Unknown{Type: env.Type, Raw: data}, nil
	}
}

// decodeContent unwraps the message field: usually a JSON string, but rich
// note pushes carry an object, which is kept as its compact JSON text.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Outbound frames.

func authFrame(beamKey string) ([]byte, error) {
	// A device joining from a scanned link has no key yet; the server
	// treats a null key as a first join.
	var key any
	if beamKey != "" {
		key = beamKey
	}
	return json.Marshal(map[string]any{"type": "auth", "message": key})
}

func shareFrame(content string, kind domain.ContentKind) ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":    "share_clipboard",
		"message": content,
		"extra":   string(kind),
	})
}

func deleteFrame(content string) ([]byte, error) {
	return json.Marshal(map[string]any{"type": "delete_note", "message": content})
}

func saveBeamFrame(title string) ([]byte, error) {
	return json.Marshal(map[string]any{"type": "save_beam", "message": title})
}
