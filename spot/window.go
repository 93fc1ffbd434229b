package spot

import (
	"fmt"
	"time"
)

// Window is a validated reporting interval. Both ends are inclusive when
// points are matched against it.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates a requested interval, start must be before end.
func NewWindow(start, end time.Time) (Window, error) {
	if start.IsZero() {
		return Window{}, fmt.Errorf("%w: start is not set", ErrInvalidWindow)
	}
	if end.IsZero() {
		return Window{}, fmt.Errorf("%w: end is not set", ErrInvalidWindow)
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
