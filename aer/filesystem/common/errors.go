package common

import (
	"errors"
	"fmt"
)

// Common error types used across filesystem packages
var (
	ErrPathEmpty        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid      = errors.New("path contains invalid characters")
	ErrPathNotUnderRoot = errors.New("path is not under the catalog root")
	ErrNotRegularFile   = errors.New("not a regular file")
)

// PathNotUnderRootError is returned when a path handed out by the walker escapes the root.
// It points at a defect in the enumerator, not at user input.
type PathNotUnderRootError struct {
	Path string
	Root string
}

func (e *PathNotUnderRootError) Error() string {
	return fmt.Sprintf("%s is not under root %s", e.Path, e.Root)
}

func (e *PathNotUnderRootError) Unwrap() error { return ErrPathNotUnderRoot }

// EntryError describes one filesystem entry that was skipped during a listing.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("skipping %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
