package nckweb

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a content or asset root does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content root %v not found", e.Path)
}

// TransformError reports a sub-transform that failed on a specific post.
type TransformError struct {
	Path      string
	Transform string
	Cause     error
}

func (e *TransformError) Error() string {
	if e.Transform == "" {
		return fmt.Sprintf("transforming %v: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("transforming %v (%v): %v", e.Path, e.Transform, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// AssetNotFoundError is returned when an image reference has no source file
// under any asset root.
type AssetNotFoundError struct {
	Path string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("asset %v not found under any asset root", e.Path)
}

// DuplicateRouteError is returned when two pages resolve to the same route.
type DuplicateRouteError struct {
	Route   string
	Sources []string
}

func (e *DuplicateRouteError) Error() string {
	if len(e.Sources) == 0 {
		return fmt.Sprintf("duplicate route %v", e.Route)
	}
	return fmt.Sprintf("duplicate route %v (from %v)", e.Route, strings.Join(e.Sources, ", "))
}

// RootPageError is returned when a page set does not contain exactly one root page.
type RootPageError struct {
	Count int
}

func (e *RootPageError) Error() string {
	return fmt.Sprintf("expected exactly one root page, found %d", e.Count)
}
