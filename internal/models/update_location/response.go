package models

import (
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

type UpdateLocationResponse struct {
	EntryID  string                `json:"entryId"`
	Location *entrymodels.Location `json:"location"`
	Message  string                `json:"message"`
}
