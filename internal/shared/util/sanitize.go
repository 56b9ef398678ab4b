package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName flags names that are empty or degenerate after cleaning.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameLen = 255

// SanitizeFileName reduces a client-supplied file name to a safe base name.
// Some browsers send full paths in multipart headers; everything up to the
// last path separator is dropped and overlong names keep their tail so the
// extension survives.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	switch s {
	case "", ".", "..":
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		s = s[len(s)-maxFileNameLen:]
	}
	return s, nil
}
