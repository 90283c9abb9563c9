package filex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExt(t *testing.T) {
	require.Equal(t, "png", Ext("a.PNG"))
	require.Equal(t, "gz", Ext("a.tar.gz"))
	require.Equal(t, "", Ext("README"))
	require.Equal(t, "", Ext("trailing."))
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed bool
		image   bool
	}{
		{"cat.png", true, true},
		{"cat.JPEG", true, true},
		{"anim.gif", true, true},
		{"report.pdf", true, false},
		{"notes.txt", true, false},
		{"deck.pptx", true, false},
		{"virus.exe", false, false},
		{"noext", false, false},
		{"png", false, false},
		{".png", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.allowed, IsAllowed(tt.name))
			require.Equal(t, tt.image, IsImage(tt.name))
		})
	}
}

func TestMimeType(t *testing.T) {
	require.Equal(t, "image/jpeg", MimeType("x.jpg"))
	require.Equal(t, "application/pdf", MimeType("x.PDF"))
	require.Equal(t, "application/octet-stream", MimeType("x.bin"))
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		want     string
	}{
		{"notes.txt", "", "text/plain"},
		{"notes.txt", "text/plain; charset=utf-8", "text/plain; charset=utf-8"},
		{"notes.txt", "Text/Plain", "Text/Plain"},
		{"notes.txt", "text/html", "text/plain"},
		{"notes.txt", "text/html; charset=utf-8", "text/plain"},
		{"cat.png", "image/svg+xml", "image/png"},
		{"cat.png", "not a type", "image/png"},
		{"blob.bin", "text/html", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" "+tt.declared, func(t *testing.T) {
			require.Equal(t, tt.want, ContentType(tt.name, tt.declared))
		})
	}
}
