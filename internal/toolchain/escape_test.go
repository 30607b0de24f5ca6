package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeFilterPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/tmp/video.mp4", "/tmp/video.mp4"},
		{"colon", "C:/tmp/video.mp4", `C\:/tmp/video.mp4`},
		{"backslash", `C:\tmp\video.mp4`, `C\:\\\\tmp\\\\video.mp4`},
		{"quote", "/tmp/it's.mp4", `/tmp/it\'s.mp4`},
		{"brackets", "/tmp/[1].mp4", `/tmp/\[1\].mp4`},
		{"comma_semicolon", "/tmp/a,b;c.mp4", `/tmp/a\,b\;c.mp4`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeFilterPath(tt.in))
		})
	}
}

func TestEscapeListFilePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/tmp/video.mp4", "'/tmp/video.mp4'"},
		{"quote", "/tmp/it's.mp4", `'/tmp/it'\''s.mp4'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeListFilePath(tt.in))
		})
	}
}
