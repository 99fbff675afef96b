package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

var (
	ErrInvalidPath     = errors.New("invalid file path")
	ErrPathNotExists   = errors.New("path does not exist")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyString     = errors.New("value must not be empty")
	ErrOutOfRange      = errors.New("value out of range")
	ErrNotAllowed      = errors.New("value not allowed")
)

func ValidateFilePath(p string, mustExist bool) error {
	if p == "" {
		return ErrInvalidPath
	}
	p = filepath.Clean(p)
	if mustExist {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %v", ErrPathNotExists, err)
		}
	}
	return nil
}

// ValidateReadableFile accepts regular files, named pipes and character
// devices (process substitution, /dev/stdin). Directories, sockets and
// block devices are rejected.
func ValidateReadableFile(p string) error {
	if err := ValidateFilePath(p, true); err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathNotExists, err)
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
	case mode&fs.ModeNamedPipe != 0:
	case mode&fs.ModeCharDevice != 0:
	case mode.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrUnsupportedFile, p)
	default:
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedFile, p, mode.Type())
	}
	return nil
}

func ValidateStringNonEmpty(s string) error {
	if s == "" {
		return ErrEmptyString
	}
	return nil
}

func ValidateRangeInt(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, v, min, max)
	}
	return nil
}

func ValidateOneOf(v string, allowed ...string) error {
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrNotAllowed, v, allowed)
	}
	return nil
}
