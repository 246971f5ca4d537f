package models

import (
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

type RemoveMediaResponse struct {
	Message string             `json:"message"`
	Entry   *entrymodels.Entry `json:"entry"`
}
