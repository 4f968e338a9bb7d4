// Package sampler derives a smoothed transfer rate and ETA from a bounded
// window of (elapsed, cumulative bytes) observations.
//
// The window is a fixed-capacity ring buffer. Samples leave it when they are
// older than the retention window relative to the newest sample, or when the
// buffer is full and a new sample overwrites the oldest one. The sampler never
// allocates after construction.
package sampler

import (
	"math"
	"time"

	"github.com/tanq16/dlspeed/internal/utils"
)

// Options configures a Sampler.
type Options struct {
	// Window is the retention window measured back from the newest sample.
	// Default: 2s
	Window time.Duration

	// Capacity is the maximum number of retained samples.
	// Default: 64, minimum 2
	Capacity int

	// ExpectedTotal is the expected final byte count, or -1 when unknown.
	ExpectedTotal int64
}

// Sampler is not safe for concurrent use; each transfer owns its own.
type Sampler struct {
	window        time.Duration
	expectedTotal int64
	buf           []utils.Sample
	head          int // index of the oldest sample
	size          int
}

func New(opts Options) *Sampler {
	if opts.Window <= 0 {
		opts.Window = utils.DefaultSampleWindow
	}
	if opts.Capacity <= 0 {
		opts.Capacity = utils.DefaultSampleCapacity
	}
	if opts.Capacity < 2 {
		opts.Capacity = 2
	}
	return &Sampler{
		window:        opts.Window,
		expectedTotal: opts.ExpectedTotal,
		buf:           make([]utils.Sample, opts.Capacity),
	}
}

// Record appends a sample. Samples whose elapsed time goes backwards are
// clamped to the newest one so the window stays ordered.
func (s *Sampler) Record(elapsed time.Duration, bytesTotal int64) {
	if s.size > 0 {
		newest := s.at(s.size - 1)
		if elapsed < newest.Elapsed {
			elapsed = newest.Elapsed
		}
		if bytesTotal < newest.BytesTotal {
			bytesTotal = newest.BytesTotal
		}
	}
	sample := utils.Sample{Elapsed: elapsed, BytesTotal: bytesTotal}
	if s.size == len(s.buf) {
		s.buf[s.head] = sample
		s.head = (s.head + 1) % len(s.buf)
	} else {
		s.buf[(s.head+s.size)%len(s.buf)] = sample
		s.size++
	}
	s.evict(elapsed)
}

// evict drops aged samples but always keeps two so a rate stays computable
// on slow streams whose chunks arrive further apart than the window.
func (s *Sampler) evict(now time.Duration) {
	for s.size > 2 && now-s.buf[s.head].Elapsed > s.window {
		s.head = (s.head + 1) % len(s.buf)
		s.size--
	}
}

// Estimate is a pure read of the current window.
func (s *Sampler) Estimate() utils.SpeedEstimate {
	var est utils.SpeedEstimate
	if s.size < 2 {
		return est
	}
	oldest, newest := s.at(0), s.at(s.size-1)
	dt := (newest.Elapsed - oldest.Elapsed).Seconds()
	db := newest.BytesTotal - oldest.BytesTotal
	if dt <= 0 || db < 0 {
		return est
	}
	rate := float64(db) / dt
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return est
	}
	est.BytesPerSecond = rate
	if s.expectedTotal >= 0 && rate > 0 {
		remaining := max(s.expectedTotal-newest.BytesTotal, 0)
		eta := float64(remaining) / rate * float64(time.Second)
		if eta < math.MaxInt64 {
			est.ETA = time.Duration(eta)
			est.HasETA = true
		}
	}
	return est
}

// Latest returns the newest sample, or false when the window is empty.
func (s *Sampler) Latest() (utils.Sample, bool) {
	if s.size == 0 {
		return utils.Sample{}, false
	}
	return s.at(s.size - 1), true
}

func (s *Sampler) Len() int {
	return s.size
}

func (s *Sampler) Cap() int {
	return len(s.buf)
}

// Reset empties the window; the expected total is kept.
func (s *Sampler) Reset() {
	s.head = 0
	s.size = 0
}

func (s *Sampler) at(i int) utils.Sample {
	return s.buf[(s.head+i)%len(s.buf)]
}
