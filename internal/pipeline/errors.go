package pipeline

import (
	"errors"
	"fmt"
)

// NetworkError means the field data request could not complete
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means the response body was not the expected JSON envelope
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError means an item lacks the geometry or properties needed to flatten it
type ShapeError struct {
	Index  int // position of the item in the page, -1 if unknown
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Index < 0 {
		return "shape: " + e.Reason
	}
	return fmt.Sprintf("shape: item %d: %s", e.Index, e.Reason)
}

// IsFatal reports whether err aborts a dashboard render
func IsFatal(err error) bool {
	var netErr *NetworkError
	var decErr *DecodeError
	var shapeErr *ShapeError
	return errors.As(err, &netErr) || errors.As(err, &decErr) || errors.As(err, &shapeErr)
}
