package task

import (
	"sync"
	"time"

	"github.com/icodeforyou/spotprice-go/calc"
	"github.com/icodeforyou/spotprice-go/spot"
)

// Result is the outcome of one successful spot price run.
type Result struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Unit    calc.Unit      `json:"unit"`
	Average float64        `json:"average"`
	Prices  spot.DayBucket `json:"prices"`
	Updated time.Time      `json:"updated"`
}

// Latest keeps the most recent Result, it is written by the task and read by
// the web server.
type Latest struct {
	mu     sync.RWMutex
	result *Result
}

func (l *Latest) Set(r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r.Prices = r.Prices.Clone()
	l.result = &r
}

// Get returns a copy, ok is false until the first run succeeded.
func (l *Latest) Get() (Result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.result == nil {
		return Result{}, false
	}
	r := *l.result
	r.Prices = r.Prices.Clone()
	return r, true
}

// PriceAt looks up the price of the hour t falls in, t must be in the
// market timezone.
func (l *Latest) PriceAt(t time.Time) (spot.HourPrice, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.result == nil {
		return spot.HourPrice{}, false
	}
	clock := t.Format("15") + ":00"
	for _, hp := range l.result.Prices[t.Format("2006-01-02")] {
		if hp.Time == clock {
			return hp, true
		}
	}
	return spot.HourPrice{}, false
}
