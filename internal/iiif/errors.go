package iiif

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction indicates the input was not a well-formed record container
	ErrConstruction = errors.New("cannot construct descriptive record")

	// ErrAmbiguousMatch indicates a metadata query did not match exactly one field
	ErrAmbiguousMatch = errors.New("ambiguous metadata match")

	// ErrFieldNotFound indicates a field is not present in the collection
	ErrFieldNotFound = errors.New("metadata field not found")
)

// ConstructionError is returned when extraction or construction is handed
// input that is not a well-formed record. No partial result accompanies it.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConstruction, e.Reason)
}

// Is implements errors.Is support
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// AmbiguousMatchError is returned by modify/remove operations when the
// (label, value) query matched zero or several fields.
type AmbiguousMatchError struct {
	Label   string
	Value   string
	Matches int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s: expected exactly 1 field with label %q and value %q, found %d",
		ErrAmbiguousMatch, e.Label, e.Value, e.Matches)
}

// Is implements errors.Is support
func (e *AmbiguousMatchError) Is(target error) bool {
	return target == ErrAmbiguousMatch
}
