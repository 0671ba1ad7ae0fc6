package tumblr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInitialState is returned when a page lacks the ___INITIAL_STATE___ element,
	// which usually means a login wall or a removed post.
	ErrMissingInitialState = errors.New("missing ___INITIAL_STATE___ element")
	ErrMissingAPIToken     = errors.New("missing api token")
	ErrMissingScrapedPost  = errors.New("missing scraped post")
	ErrInvalidPostURL      = errors.New("invalid post url")

	// ErrDataConsistency is matched by every error caused by data
	// that decoded fine but cannot be used unambiguously.
	ErrDataConsistency      = errors.New("data consistency error")
	ErrMissingOriginalMedia = fmt.Errorf("%w: failed to find original media object", ErrDataConsistency)
	ErrMissingVideoURL      = fmt.Errorf("%w: missing video url", ErrDataConsistency)
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s failed with: %s", e.URL, e.Status)
}

// SchemaError reports JSON that doesn't match the content model.
type SchemaError struct {
	Stage string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Stage, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// UnknownVariantError is returned for a tagged union member the model doesn't know about.
type UnknownVariantError struct {
	Union string
	Type  string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown %s type %q", e.Union, e.Type)
}

// AmbiguousMediaError is returned when more than one media object claims original dimensions.
type AmbiguousMediaError struct {
	Count int
}

func (e *AmbiguousMediaError) Error() string {
	return fmt.Sprintf("%v: found %d original media objects, expected 1", ErrDataConsistency, e.Count)
}

func (e *AmbiguousMediaError) Is(target error) bool {
	return target == ErrDataConsistency
}

type URLError struct {
	URL    string
	Reason string
}

func (e *URLError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidPostURL, e.URL, e.Reason)
}

func (e *URLError) Unwrap() error {
	return ErrInvalidPostURL
}
