package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "show_20240101.mp4", want: "show_20240101"},
		{in: "show.final.mxf", want: "show.final"},
		{in: "noext", want: "noext"},
		{in: ".hidden", want: ""},
		{in: "trailing.", want: "trailing"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripExt(tt.in))
		})
	}
}

func TestWriteAtomic_CreatesDirAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	require.NoError(t, WriteAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
