package models

import "strings"

// ContentClass is the preview category derived from a filename.
type ContentClass string

const (
	ContentVideo ContentClass = "video"
	ContentText  ContentClass = "text"
	ContentOther ContentClass = "other"
)

var (
	videoExtensions = map[string]struct{}{
		"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {}, "mkv": {},
	}
	textExtensions = map[string]struct{}{
		"txt": {}, "md": {}, "js": {}, "py": {}, "html": {}, "css": {}, "json": {}, "xml": {}, "csv": {},
	}
)

// Classify maps a filename to its content class by extension only.
func Classify(filename string) ContentClass {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ContentOther
	}
	ext := strings.ToLower(filename[i+1:])
	if _, ok := videoExtensions[ext]; ok {
		return ContentVideo
	}
	if _, ok := textExtensions[ext]; ok {
		return ContentText
	}
	return ContentOther
}

// Previewable reports whether the class has a preview surface.
func (c ContentClass) Previewable() bool {
	return c == ContentVideo || c == ContentText
}
