package utils

import (
	"time"
)

// Request is a single measurement target. It is immutable once parsed.
type Request struct {
	Method string `yaml:"method,omitempty"`
	URL    string `yaml:"url"`
}

func (r Request) String() string {
	return r.Method + " " + r.URL
}

// Sample is one (elapsed, cumulative bytes) observation within a transfer.
type Sample struct {
	Elapsed    time.Duration
	BytesTotal int64
}

// SpeedEstimate is derived from the sampler window on demand.
type SpeedEstimate struct {
	BytesPerSecond float64
	ETA            time.Duration
	HasETA         bool
}

// Update is handed to a progress reporter after every chunk.
type Update struct {
	TransferID    string
	Ordinal       int
	Request       Request
	Status        string
	Latency       time.Duration
	ExpectedTotal int64 // -1 when the server did not send a length
	BytesTotal    int64
	Elapsed       time.Duration
	Estimate      SpeedEstimate
}

// Percent reports completion in [0, 100]. The second value is false when the
// total size is unknown.
func (u Update) Percent() (float64, bool) {
	if u.ExpectedTotal < 0 {
		return 0, false
	}
	if u.ExpectedTotal == 0 {
		return 100, true
	}
	p := float64(u.BytesTotal) / float64(u.ExpectedTotal) * 100
	return min(max(p, 0), 100), true
}

type TransferResult struct {
	ID                    string
	Ordinal               int
	Request               Request
	Status                string
	StatusCode            int
	ExpectedTotal         int64
	BytesTotal            int64
	Latency               time.Duration
	Elapsed               time.Duration
	AverageBytesPerSecond float64
	Err                   error
}

func (t TransferResult) Failed() bool {
	return t.Err != nil
}

// RunResult holds one TransferResult per input request, in input order.
type RunResult struct {
	ID      string
	Started time.Time
	Elapsed time.Duration
	Results []TransferResult
}

func (r RunResult) Counts() (succeeded, failed int) {
	for _, res := range r.Results {
		if res.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

func (r RunResult) TotalBytes() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.BytesTotal
	}
	return total
}
