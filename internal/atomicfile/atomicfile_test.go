package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

//nolint:gochecknoglobals
var veryLongSegment = strings.Repeat("f", 270)

func TestMaybePrefixLongFilenameOnWindows(t *testing.T) {
	if runtime.GOOS != "windows" {
		return
	}

	cases := []struct {
		input string
		want  string
	}{
		// too short
		{"C:\\Short.txt", "C:\\Short.txt"},

		// long paths
		{"C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"C:\\" + veryLongSegment + "/foo/bar", "\\\\?\\C:\\" + veryLongSegment + "\\foo\\bar"},
		{"C:\\" + veryLongSegment + "/foo/./././bar", "\\\\?\\C:\\" + veryLongSegment + "\\foo\\bar"},
		{"C:\\" + veryLongSegment + "\\.\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"C:\\" + veryLongSegment + "/.\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"C:\\" + veryLongSegment + "\\./foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"\\\\?\\C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},

		// relative
		{veryLongSegment + "\\foo", veryLongSegment + "\\foo"},
		{"./" + veryLongSegment + "\\foo", "./" + veryLongSegment + "\\foo"},
		{"../../" + veryLongSegment + "\\foo", "../../" + veryLongSegment + "\\foo"},
		{"..\\..\\" + veryLongSegment + "\\foo", "..\\..\\" + veryLongSegment + "\\foo"},
	}

	for _, tc := range cases {
		if got := MaybePrefixLongFilenameOnWindows(tc.input); got != tc.want {
			t.Errorf("invalid result for %v: got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestWriteBytes(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "vault.dat")

	require.NoError(t, WriteBytes(fname, []byte("first")))
	require.NoError(t, WriteBytes(fname, []byte("second")))

	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(fname))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWrite_MissingDirectory(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "no-such-dir", "vault.dat")

	err := Write(fname, strings.NewReader("data"))
	require.ErrorContains(t, err, "unable to write")
}
