package models

type RemoveLocationResponse struct {
	EntryID string `json:"entryId"`
	Message string `json:"message"`
}
