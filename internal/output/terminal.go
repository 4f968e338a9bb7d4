package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tanq16/dlspeed/internal/utils"
)

type TerminalOptions struct {
	// Output is where progress is drawn.
	// Default: os.Stderr
	Output io.Writer

	// Interactive enables the redraw-in-place live line. Without it only the
	// header and the final lines of each transfer are printed.
	Interactive bool

	// RedrawInterval throttles live redraws.
	// Default: 100ms
	RedrawInterval time.Duration

	// Now is the clock used for throttling.
	// Default: time.Now
	Now func() time.Time
}

// Terminal draws one live progress line per transfer. Transfers are expected
// to run one at a time; concurrent transfers would need one region each.
type Terminal struct {
	opts      TerminalOptions
	width     int
	mu        sync.Mutex
	current   string
	lastDraw  time.Time
	lineDrawn bool
	last      utils.Update
}

func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.RedrawInterval <= 0 {
		opts.RedrawInterval = utils.DefaultRedrawInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Terminal{
		opts:  opts,
		width: terminalWidth(opts.Output),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	return isTerminal(w)
}

func (t *Terminal) Report(u utils.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.begin(u.TransferID, u.Request, u.Status, u.Latency)
	t.last = u
	if !t.opts.Interactive {
		return
	}
	now := t.opts.Now()
	if t.lineDrawn && now.Sub(t.lastDraw) < t.opts.RedrawInterval {
		return
	}
	t.lastDraw = now
	t.draw(RenderProgress(u))
}

func (t *Terminal) Finish(res utils.TransferResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != res.ID {
		t.begin(res.ID, res.Request, res.Status, res.Latency)
	}
	if t.lineDrawn {
		fmt.Fprint(t.opts.Output, "\r\033[K")
	}
	if res.BytesTotal > 0 || !res.Failed() {
		final := utils.Update{
			ExpectedTotal: res.ExpectedTotal,
			BytesTotal:    res.BytesTotal,
			Elapsed:       res.Elapsed,
			Estimate:      utils.SpeedEstimate{BytesPerSecond: t.last.Estimate.BytesPerSecond},
		}
		if !res.Failed() {
			final.Estimate.BytesPerSecond = res.AverageBytesPerSecond
		}
		fmt.Fprintln(t.opts.Output, t.fit(RenderProgress(final)))
	}
	fmt.Fprintln(t.opts.Output, RenderResult(res))
	fmt.Fprintln(t.opts.Output)
	t.current = ""
	t.lineDrawn = false
	t.last = utils.Update{}
}

// begin prints the header of a transfer the first time it is seen.
func (t *Terminal) begin(id string, req utils.Request, status string, latency time.Duration) {
	if t.current == id {
		return
	}
	t.current = id
	t.lineDrawn = false
	t.last = utils.Update{}
	fmt.Fprintf(t.opts.Output, "%s %s %s\n", FDetail("==>"), FSuccess(req.Method), req.URL)
	if status != "" {
		fmt.Fprintf(t.opts.Output, "%s %s\n", FHeader(status), FDebug(utils.FormatDuration(latency)))
	}
}

func (t *Terminal) draw(line string) {
	fmt.Fprint(t.opts.Output, "\r\033[K"+t.fit(line))
	t.lineDrawn = true
}

func (t *Terminal) fit(line string) string {
	if !t.opts.Interactive {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(t.width - 1).Render(line)
}
