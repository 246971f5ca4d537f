package models

import (
	"encoding/json"
	"strings"
)

// UpdateEntryRequest is a partial update: nil fields are left unchanged.
// Location may be sent as an object or as a string holding JSON or free text.
type UpdateEntryRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Location    json.RawMessage `json:"location,omitempty"`
}

// LocationText returns the location as text to be parsed, or nil when the
// field was absent or null.
func (r UpdateEntryRequest) LocationText() *string {
	raw := strings.TrimSpace(string(r.Location))
	if raw == "" || raw == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(r.Location, &s); err == nil {
		return &s
	}
	return &raw
}
