package attachment

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/model"
)

func TestFilterAccepts(t *testing.T) {
	cases := []struct {
		name   string
		accept []string
		file   *model.File
		want   bool
	}{
		{name: "wildcard", accept: []string{"image/*"}, file: &model.File{Name: "a.png", MIMEType: "image/png"}, want: true},
		{name: "wildcard other type", accept: []string{"image/*"}, file: &model.File{Name: "b.exe", MIMEType: "application/x-msdownload"}, want: false},
		{name: "exact with params", accept: []string{"text/plain"}, file: &model.File{Name: "a.txt", MIMEType: "Text/Plain; charset=utf-8"}, want: true},
		{name: "extension without mime", accept: []string{"image/*", ".png"}, file: &model.File{Name: "A.PNG"}, want: true},
		{name: "extension ignored when mime declared", accept: []string{"image/*", ".pdf"}, file: &model.File{Name: "a.pdf", MIMEType: "application/pdf"}, want: false},
		{name: "extension only filter", accept: []string{".pdf", ".doc", ".docx", ".txt"}, file: &model.File{Name: "cv.docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, want: true},
		{name: "extension only filter mismatch", accept: []string{".pdf"}, file: &model.File{Name: "cv.exe"}, want: false},
		{name: "missing mime no extension list", accept: []string{"image/*"}, file: &model.File{Name: "a.png"}, want: false},
		{name: "empty filter", accept: nil, file: &model.File{Name: "anything"}, want: true},
		{name: "any", accept: []string{"*/*"}, file: &model.File{Name: "x", MIMEType: "application/zip"}, want: true},
		{name: "nil file", accept: nil, file: nil, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewFilter(tc.accept).Accepts(tc.file); got != tc.want {
				t.Fatalf("accepts: got %v, want %v", got, tc.want)
			}
		})
	}
}
