// Package wikierr holds the sentinel and structured error kinds that
// callers of the pipeline and the search engine distinguish between,
// per spec.md §7.
package wikierr

import "fmt"

// ParseError is class 1: a malformed SQL literal. Fatal to the current
// stage; carries the byte offset the lexer had reached.
type ParseError struct {
	Table  string
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q dump at byte %d: %s", e.Table, e.Offset, e.Msg)
}

// SchemaMismatch is class 2: the tuple's column count does not match the
// expected table shape.
type SchemaMismatch struct {
	Table    string
	Offset   int64
	Expected int
	Got      int
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("%q dump tuple at byte %d has %d columns, expected %d", e.Table, e.Offset, e.Got, e.Expected)
}

// UnknownTitle is class 3: a query-time endpoint that does not resolve
// to any known page.
type UnknownTitle struct {
	Title string
}

func (e *UnknownTitle) Error() string {
	return fmt.Sprintf("unknown title: %q", e.Title)
}

// NoPath is class 4: the BFS frontier emptied without reaching the
// target.
type NoPath struct {
	Source PageIDLike
	Target PageIDLike
}

// PageIDLike avoids importing model here, keeping this package leaf-level.
type PageIDLike = uint32

func (e *NoPath) Error() string {
	return fmt.Sprintf("no path from page %d to page %d", e.Source, e.Target)
}

// ErrIndexIncomplete is class 7: the index lacks the build_complete
// sentinel, so it must not be opened for queries.
var ErrIndexIncomplete = fmt.Errorf("index is incomplete: missing build_complete sentinel")
