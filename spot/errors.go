package spot

import "errors"

// Failure kinds of a price request. Collaborators wrap these so callers can
// classify an error with errors.Is.
var (
	ErrInvalidWindow           = errors.New("invalid time window")
	ErrTransformFailure        = errors.New("provider response could not be transformed")
	ErrProviderRejected        = errors.New("provider rejected the request")
	ErrUnexpectedResponseShape = errors.New("unexpected provider response shape")
	ErrUnsupportedSeriesFormat = errors.New("unsupported time series format")
	ErrNoResponse              = errors.New("no response from provider")
	ErrEmptyResultSet          = errors.New("empty result set")
)
