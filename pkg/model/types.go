package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind string

const (
	KindNull      Kind = "null"
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindStringSet Kind = "stringSet"
	KindFileList  Kind = "fileList"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNull, KindString, KindNumber, KindDate, KindStringSet, KindFileList:
		return true
	default:
		return false
	}
}

// Value is an immutable tagged union holding a single field value. The zero
// Value is Null.
type Value struct {
	kind  Kind
	str   string
	num   float64
	date  Date
	set   []string
	files []*File
}

// Null returns the absent value.
func Null() Value { return Value{kind: KindNull} }

// String wraps a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// DateValue wraps a calendar date.
func DateValue(d Date) Value { return Value{kind: KindDate, date: d} }

// StringSet wraps a selection of options (tags, checkboxes). The slice is
// copied.
func StringSet(items ...string) Value {
	return Value{kind: KindStringSet, set: append([]string{}, items...)}
}

// Files wraps a list of attachments. The slice is copied but the File
// pointers are shared so attachments are held by reference.
func Files(files ...*File) Value {
	return Value{kind: KindFileList, files: append([]*File{}, files...)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

// AsString returns the text payload when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsDate returns the calendar date when the value is a date.
func (v Value) AsDate() (Date, bool) {
	if v.kind != KindDate {
		return Date{}, false
	}
	return v.date, true
}

// AsStringSet returns a copy of the selection when the value is a string-set.
func (v Value) AsStringSet() ([]string, bool) {
	if v.kind != KindStringSet {
		return nil, false
	}
	return append([]string{}, v.set...), true
}

// AsFiles returns the attachment list when the value is a file-list. The
// returned slice is a copy; the File pointers are shared.
func (v Value) AsFiles() ([]*File, bool) {
	if v.kind != KindFileList {
		return nil, false
	}
	return append([]*File{}, v.files...), true
}

// Len reports the element count for string-set and file-list values, the
// rune count for strings, and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.str))
	case KindStringSet:
		return len(v.set)
	case KindFileList:
		return len(v.files)
	default:
		return 0
	}
}

// IsEmpty reports whether the value carries no user input: null, blank
// strings, empty selections and empty file lists.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStringSet:
		return len(v.set) == 0
	case KindFileList:
		return len(v.files) == 0
	default:
		return false
	}
}

// Equal compares two values by kind and payload. File lists compare by
// identity of their File pointers.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindDate:
		return v.date == other.date
	case KindStringSet:
		if len(v.set) != len(other.set) {
			return false
		}
		for i := range v.set {
			if v.set[i] != other.set[i] {
				return false
			}
		}
		return true
	case KindFileList:
		if len(v.files) != len(other.files) {
			return false
		}
		for i := range v.files {
			if v.files[i] != other.files[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the value for prompts and logs.
func (v Value) String() string {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.String()
	case KindStringSet:
		return strings.Join(v.set, ", ")
	case KindFileList:
		names := make([]string, 0, len(v.files))
		for _, f := range v.files {
			if f != nil {
				names = append(names, f.Name)
			}
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}

// MarshalJSON encodes the payload as its natural JSON form. Dates use
// YYYY-MM-DD and files encode their metadata only.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindDate:
		return json.Marshal(v.date.String())
	case KindStringSet:
		return json.Marshal(v.set)
	case KindFileList:
		return json.Marshal(v.files)
	default:
		return []byte("null"), nil
	}
}
