package model

import (
	"path"
	"strings"
)

// File describes one attachment held in memory. Handle carries an opaque
// caller-owned reference (for example an afero.File or a browser handle) and
// Data the optional in-memory blob.
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType,omitempty"`
	Size     int64  `json:"sizeBytes"`
	Data     []byte `json:"-"`
	Handle   any    `json:"-"`
}

// Ext returns the lower-cased extension including the leading dot.
func (f *File) Ext() string {
	if f == nil {
		return ""
	}
	return strings.ToLower(path.Ext(f.Name))
}
