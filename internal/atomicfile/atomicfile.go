// Package atomicfile provides wrappers for atomically writing files in a manner compatible with long filenames.
package atomicfile

import (
	"bytes"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

const (
	maxPathLength      = 260
	longFilenamePrefix = `\\?\`
)

// MaybePrefixLongFilenameOnWindows prefixes the given absolute filename with \\?\ on Windows
// if the filename is longer than 260 characters, which is required to be able to
// use some low-level Windows APIs.
func MaybePrefixLongFilenameOnWindows(fname string) string {
	if runtime.GOOS != "windows" {
		return fname
	}

	if len(fname) < maxPathLength {
		return fname
	}

	if strings.HasPrefix(fname, longFilenamePrefix) {
		return fname
	}

	if !filepath.IsAbs(fname) {
		// only absolute paths can be prefixed
		return fname
	}

	return longFilenamePrefix + filepath.Clean(fname)
}

// Write is a wrapper around atomic.WriteFile that handles long file names on Windows.
// Readers of the file observe either the previous or the new contents, never a partial write.
func Write(filename string, r io.Reader) error {
	return errors.Wrapf(atomic.WriteFile(MaybePrefixLongFilenameOnWindows(filename), r), "unable to write %v", filename)
}

// WriteBytes atomically replaces the contents of the file with the provided bytes.
func WriteBytes(filename string, b []byte) error {
	return Write(filename, bytes.NewReader(b))
}
