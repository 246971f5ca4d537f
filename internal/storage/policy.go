package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

const DefaultMaxBytes int64 = 50 << 20

var allowedExtensions = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {},
	".mp4": {}, ".webm": {}, ".ogg": {}, ".mov": {}, ".avi": {}, ".mkv": {},
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {}, "image/png": {}, "image/gif": {},
	"video/mp4": {}, "video/webm": {}, "video/ogg": {},
	"video/quicktime": {}, "video/x-msvideo": {}, "video/x-matroska": {},
}

// Policy decides whether an upload may be stored at all.
type Policy struct {
	MaxBytes int64
}

func NewPolicy(maxBytes int64) Policy {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Policy{MaxBytes: maxBytes}
}

// Check validates the extension when the name has one, otherwise the
// declared content type.
func (p Policy) Check(u Upload) error {
	max := p.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if u.Size() > max {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrFileTooLarge, u.Name, u.Size(), max)
	}

	if ext := Ext(u.Name); ext != "" {
		if _, ok := allowedExtensions[ext]; !ok {
			return fmt.Errorf("%w: %q", ErrUnsupportedType, u.Name)
		}
		return nil
	}

	if _, ok := allowedContentTypes[baseContentType(u.ContentType)]; !ok {
		return fmt.Errorf("%w: %q (%s)", ErrUnsupportedType, u.Name, u.ContentType)
	}
	return nil
}

// Ext returns the lower-cased extension including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func baseContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// extForContentType picks an extension for uploads whose name has none.
func extForContentType(ct string) string {
	switch baseContentType(ct) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/ogg":
		return ".ogg"
	case "video/quicktime":
		return ".mov"
	case "video/x-msvideo":
		return ".avi"
	case "video/x-matroska":
		return ".mkv"
	}
	return ""
}

func storedExt(u Upload) string {
	if ext := Ext(u.Name); ext != "" {
		return ext
	}
	return extForContentType(u.ContentType)
}
