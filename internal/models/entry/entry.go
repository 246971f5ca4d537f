package models

import "time"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is one stored file referenced by an entry. URL is either an absolute
// remote URL or a root-relative /uploads/<name> path.
type Media struct {
	ID   string    `json:"id"`
	URL  string    `json:"url"`
	Kind MediaKind `json:"type"`
}

type Entry struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    *Location  `json:"location,omitempty"`
	Media       []Media    `json:"media"`
	Archived    bool       `json:"archived"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a copy that shares no slices or pointers with e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	if e.Location != nil {
		loc := *e.Location
		out.Location = &loc
	}
	if e.ArchivedAt != nil {
		at := *e.ArchivedAt
		out.ArchivedAt = &at
	}
	out.Media = make([]Media, len(e.Media))
	copy(out.Media, e.Media)
	return &out
}

func (e *Entry) FindMedia(id string) (int, bool) {
	for i, m := range e.Media {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (e *Entry) FindMediaByURL(url string) (int, bool) {
	for i, m := range e.Media {
		if m.URL == url {
			return i, true
		}
	}
	return -1, false
}
