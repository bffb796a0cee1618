package domain

import "time"

// Share permissions accepted by /beams/update-share/.
const (
	PermissionView = "view"
	PermissionEdit = "edit"
)

// BeamShare is one grant of access to a saved beam, either received
// (shared-with-me) or given (my-shares).
type BeamShare struct {
	ID         int       `json:"id"`
	BeamID     string    `json:"beam_id"`
	BeamName   string    `json:"beam_name,omitempty"`
	Owner      string    `json:"owner,omitempty"`
	SharedWith string    `json:"shared_with,omitempty"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// NextPermission cycles view -> edit -> view for the share toggle.
func NextPermission(p string) string {
	if p == PermissionView {
		return PermissionEdit
	}
	return PermissionView
}
