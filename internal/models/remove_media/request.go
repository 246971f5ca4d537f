package models

// RemoveMediaRequest identifies a reference either by id or by url.
type RemoveMediaRequest struct {
	MediaID string `json:"mediaId"`
	URL     string `json:"url"`
}
