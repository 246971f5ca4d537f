package media

import (
	"strings"

	"github.com/google/uuid"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
	"io.winapps.traveljournal/internal/storage"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".webm": {}, ".ogg": {}, ".mov": {}, ".avi": {}, ".mkv": {},
}

// Stored is a file that already sits in the blob store and is about to be referenced.
type Stored struct {
	URL         string
	Name        string
	ContentType string
}

// InferKind looks at the declared content type first, then the extension.
// Anything unrecognised is an image.
func InferKind(name, contentType string) entrymodels.MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "video/"):
		return entrymodels.MediaVideo
	case strings.HasPrefix(ct, "image/"):
		return entrymodels.MediaImage
	}
	if _, ok := videoExtensions[storage.Ext(name)]; ok {
		return entrymodels.MediaVideo
	}
	return entrymodels.MediaImage
}

// Attach appends one reference per stored file, in order, and returns only
// the new references. Existing references are untouched.
func Attach(e *entrymodels.Entry, files []Stored) []entrymodels.Media {
	added := make([]entrymodels.Media, 0, len(files))
	for _, f := range files {
		added = append(added, entrymodels.Media{
			ID:   uuid.NewString(),
			URL:  f.URL,
			Kind: InferKind(f.Name, f.ContentType),
		})
	}
	e.Media = append(e.Media, added...)
	return added
}

// DetachByID removes the reference with the given id, preserving order.
func DetachByID(e *entrymodels.Entry, id string) (entrymodels.Media, bool) {
	i, ok := e.FindMedia(id)
	if !ok {
		return entrymodels.Media{}, false
	}
	return removeAt(e, i), true
}

// DetachByURL removes the reference with the given url, preserving order.
func DetachByURL(e *entrymodels.Entry, url string) (entrymodels.Media, bool) {
	i, ok := e.FindMediaByURL(url)
	if !ok {
		return entrymodels.Media{}, false
	}
	return removeAt(e, i), true
}

func removeAt(e *entrymodels.Entry, i int) entrymodels.Media {
	m := e.Media[i]
	e.Media = append(e.Media[:i:i], e.Media[i+1:]...)
	return m
}

// URLs lists every referenced blob of an entry.
func URLs(e *entrymodels.Entry) []string {
	out := make([]string, 0, len(e.Media))
	for _, m := range e.Media {
		out = append(out, m.URL)
	}
	return out
}
