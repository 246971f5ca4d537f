package models

import "encoding/json"

// UpdateLocationRequest sets an entry's location. The value may be a
// {"lat","lng"} object or free text, which is kept verbatim.
type UpdateLocationRequest struct {
	Location json.RawMessage `json:"location" binding:"required"`
}
