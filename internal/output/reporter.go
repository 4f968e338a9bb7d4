package output

import (
	"sync"

	"github.com/tanq16/dlspeed/internal/utils"
)

// Reporter is the display sink of a transfer. Report is called once per
// chunk, Finish exactly once when the transfer ends. Implementations must not
// block the transfer for long; they may skip intermediate Reports but never
// a Finish.
type Reporter interface {
	Report(update utils.Update)
	Finish(result utils.TransferResult)
}

type discard struct{}

func (discard) Report(utils.Update)         {}
func (discard) Finish(utils.TransferResult) {}

// Discard drops every update.
var Discard Reporter = discard{}

// Recorder keeps every update and result in arrival order. It is used by
// tests and headless runs.
type Recorder struct {
	mu      sync.Mutex
	updates []utils.Update
	results []utils.TransferResult
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(update utils.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

func (r *Recorder) Finish(result utils.TransferResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *Recorder) Updates() []utils.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]utils.Update(nil), r.updates...)
}

// UpdatesFor returns the updates of one transfer ordinal.
func (r *Recorder) UpdatesFor(ordinal int) []utils.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []utils.Update
	for _, u := range r.updates {
		if u.Ordinal == ordinal {
			out = append(out, u)
		}
	}
	return out
}

func (r *Recorder) Results() []utils.TransferResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]utils.TransferResult(nil), r.results...)
}
