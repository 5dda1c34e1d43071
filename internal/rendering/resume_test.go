package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveResumeReference(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"https url", "https://cdn.example.com/cv.pdf", "https://cdn.example.com/cv.pdf"},
		{"http url", "http://cdn.example.com/cv.pdf", "http://cdn.example.com/cv.pdf"},
		{"public path", "/files/cv.pdf", "/files/cv.pdf"},
		{"private path", "/private/files/cv.pdf", "/private/files/cv.pdf"},
		{"bare filename", "cv.pdf", "/files/cv.pdf"},
		{"bare filename with spaces", "Jane Doe CV.pdf", "/files/Jane Doe CV.pdf"},
		{"other rooted path", "/uploads/cv.pdf", "/files/uploads/cv.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveResumeReference(tt.ref))
		})
	}
}

func TestResolveResumeReference_Idempotent(t *testing.T) {
	for _, ref := range []string{"", "cv.pdf", "/files/cv.pdf", "/private/files/a.docx", "https://x/y", "/uploads/cv.pdf", "dir/cv.pdf"} {
		once := ResolveResumeReference(ref)
		assert.Equal(t, once, ResolveResumeReference(once), ref)
	}
}

func TestResumeResolver_CustomPrefix(t *testing.T) {
	r := ResumeResolver{PublicPrefix: "/media", PassthroughPrefixes: []string{"/media/"}}
	assert.Equal(t, "/media/cv.pdf", r.Resolve("cv.pdf"))
	assert.Equal(t, "/media/cv.pdf", r.Resolve("/media/cv.pdf"))
}
