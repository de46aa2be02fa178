package transit

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a feed failure
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindDecode      ErrorKind = "decode"
	KindPartialData ErrorKind = "partial"
)

// Sentinels for errors.Is. A FetchError matches the sentinel of its kind.
var (
	ErrNetwork     = errors.New("network error")
	ErrDecode      = errors.New("decode error")
	ErrPartialData = errors.New("partial data")
)

// FetchError is the single error type returned by the feed client.
// A partial-data error wraps the FetchError of the feed that failed.
type FetchError struct {
	Feed string
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Kind == KindPartialData {
		return fmt.Sprintf("partial data: %v", e.Err)
	}
	return fmt.Sprintf("%s feed: %s: %v", e.Feed, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrPartialData:
		return e.Kind == KindPartialData
	}
	return false
}

// KindOf returns the outermost kind of err, for logging and metrics labels
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return "unknown"
}

func networkError(feed string, err error) error {
	return &FetchError{Feed: feed, Kind: KindNetwork, Err: err}
}

func decodeError(feed string, err error) error {
	return &FetchError{Feed: feed, Kind: KindDecode, Err: err}
}

func partialError(err error) error {
	var fe *FetchError
	feed := ""
	if errors.As(err, &fe) {
		feed = fe.Feed
	}
	return &FetchError{Feed: feed, Kind: KindPartialData, Err: err}
}
