package filetypes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRegistryBuild is the root of every error that makes a category table unusable.
	ErrRegistryBuild = errors.New("invalid category table")
	// ErrRegistryFinalized is returned when registering into a finalized registry.
	ErrRegistryFinalized = errors.New("category registry is finalized")
	// ErrRegistryNotFinalized is returned when compiling against an unchecked registry.
	ErrRegistryNotFinalized = errors.New("category registry is not finalized")
	// ErrUnknownCategory is the root of UnknownCategoryError.
	ErrUnknownCategory = errors.New("unknown category")
)

// DuplicateNameError reports a second registration of the same name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("category %q is already registered", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrRegistryBuild }

// InvalidDefinitionError reports a malformed definition such as an empty extension list.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("category %q: %s", e.Name, e.Reason)
}

func (e *InvalidDefinitionError) Unwrap() error { return ErrRegistryBuild }

// UnknownReferenceError reports a composite including a name absent from the registry.
type UnknownReferenceError struct {
	Composite string
	Reference string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("composite %q includes unknown category %q", e.Composite, e.Reference)
}

func (e *UnknownReferenceError) Unwrap() error { return ErrRegistryBuild }

// CycleError reports a composite that transitively includes itself.
// Path starts and ends with the same name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("category inclusion cycle: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrRegistryBuild }

// UnknownCategoryError is returned by Compile for a name the registry does not hold.
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Name)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }
