package entsoe

import (
	"errors"
	"fmt"

	"github.com/icodeforyou/spotprice-go/spot"
)

// RejectedError carries the reason of an acknowledgement document.
type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: no reason given", spot.ErrProviderRejected)
	}
	return fmt.Sprintf("%s: %s (code %s)", spot.ErrProviderRejected, e.Reason, e.Code)
}

func (e *RejectedError) Unwrap() error {
	return spot.ErrProviderRejected
}

// TransformError keeps the payload that could not be decoded.
type TransformError struct {
	Payload []byte
	Err     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %v", spot.ErrTransformFailure, e.Err)
}

func (e *TransformError) Unwrap() []error {
	return []error{spot.ErrTransformFailure, e.Err}
}

// FormatError reports a block or period the extractor refused.
type FormatError struct {
	Series string
	Field  string
	Value  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: series %s has %s %q", spot.ErrUnsupportedSeriesFormat, e.Series, e.Field, e.Value)
}

func (e *FormatError) Unwrap() error {
	return spot.ErrUnsupportedSeriesFormat
}

func isTransformFailure(err error) bool {
	var te *TransformError
	return errors.As(err, &te)
}
