package attachment

import (
	"mime"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Filter decides which files an attachment field accepts. MIME entries match
// exactly or by "type/*" wildcard; extension entries match the file name.
// Extensions are consulted when a file declares no MIME type, or when the
// filter lists no MIME patterns at all. An empty filter accepts everything.
type Filter struct {
	mimes []string
	exts  []string
}

// NewFilter parses accept entries such as "image/*", "application/pdf" or
// ".pdf".
func NewFilter(accept []string) Filter {
	var f Filter
	for _, raw := range accept {
		entry := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "."):
			f.exts = append(f.exts, entry)
		case strings.Contains(entry, "/"):
			f.mimes = append(f.mimes, entry)
		}
	}
	return f
}

// Empty reports whether the filter accepts everything.
func (f Filter) Empty() bool { return len(f.mimes) == 0 && len(f.exts) == 0 }

// Accepts reports whether file passes the filter.
func (f Filter) Accepts(file *model.File) bool {
	if file == nil {
		return false
	}
	if f.Empty() {
		return true
	}

	mimeType := normalizeMIME(file.MIMEType)
	if mimeType != "" {
		for _, pattern := range f.mimes {
			if matchMIME(pattern, mimeType) {
				return true
			}
		}
	}
	if mimeType == "" || len(f.mimes) == 0 {
		ext := file.Ext()
		for _, allowed := range f.exts {
			if ext == allowed {
				return true
			}
		}
	}
	return false
}

func normalizeMIME(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	return mediaType
}

func matchMIME(pattern, mimeType string) bool {
	if pattern == "*/*" || pattern == mimeType {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mimeType, prefix+"/")
	}
	return false
}
