package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrUnknownSource         = errors.New("unknown source")
	ErrDependencyUnavailable = errors.New("source dependency unavailable")
	ErrNoPages               = errors.New("no page could be fetched")
	ErrBlocked               = errors.New("blocked by robots.txt")
	ErrInvalidURL            = errors.New("invalid URL")
	ErrStoreClosed           = errors.New("store is closed")
)

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind int

const (
	KindNetwork FetchErrorKind = iota
	KindTimeout
	KindStatus
	KindParse
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Kind       FetchErrorKind
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while parsing a page or feed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur in a storage backend.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SourceError ties a manager control error to the source key it concerns.
type SourceError struct {
	Key string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q: %v", e.Key, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
