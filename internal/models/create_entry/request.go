package models

// CreateEntryForm holds the text fields of the multipart create request.
// Files arrive under "files" and are read separately.
type CreateEntryForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Location    string `form:"location"`
}
