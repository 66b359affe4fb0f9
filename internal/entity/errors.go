package entity

import (
	"errors"
	"fmt"
)

// ErrMissingObjectType is returned when an object carries no object-type.
var ErrMissingObjectType = errors.New("missing object type")

// WrongObjectTypeError reports an object-type URI with no known variant.
type WrongObjectTypeError struct {
	ObjectType string
}

func (e *WrongObjectTypeError) Error() string {
	return fmt.Sprintf("wrong object type: %q", e.ObjectType)
}

// ElementNotFoundError reports a required element that was absent once its
// enclosing element closed.
type ElementNotFoundError struct {
	Element string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found", e.Element)
}

// XMLEventError wraps a tokenizer failure hit while reading an entry or feed.
type XMLEventError struct {
	Err error
}

func (e *XMLEventError) Error() string { return "xml read error: " + e.Err.Error() }
func (e *XMLEventError) Unwrap() error { return e.Err }

// ReadObjectError wraps a failure to resolve an author, object or target.
type ReadObjectError struct {
	Element string
	Err     error
}

func (e *ReadObjectError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Element, e.Err)
}

func (e *ReadObjectError) Unwrap() error { return e.Err }

// ReadEntryError wraps a failure to read one of a feed's entries.
type ReadEntryError struct {
	Index int
	Err   error
}

func (e *ReadEntryError) Error() string {
	return fmt.Sprintf("read entry %d: %v", e.Index, e.Err)
}

func (e *ReadEntryError) Unwrap() error { return e.Err }
