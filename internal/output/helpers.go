package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tanq16/dlspeed/internal/utils"
	"golang.org/x/term"
)

const barWidth = 30

func progressBar(current, total int64, width int) string {
	if width <= 0 {
		width = barWidth
	}
	if total <= 0 {
		total = 1
		current = 1
	}
	current = min(max(current, 0), total)
	percent := float64(current) / float64(total)
	filled := max(0, min(int(percent*float64(width)), width))
	bar := strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	return "[" + bar + "]"
}

// RenderProgress formats the live line of a transfer. Without a known total
// it shows only the byte counter and the speed.
func RenderProgress(u utils.Update) string {
	var parts []string
	if pct, ok := u.Percent(); ok {
		parts = append(parts,
			infoStyle.Render(fmt.Sprintf("%s %5.1f%%", progressBar(u.BytesTotal, u.ExpectedTotal, barWidth), pct)),
			debugStyle.Render(fmt.Sprintf("%s / %s", utils.FormatBytes(uint64(u.BytesTotal)), utils.FormatBytes(uint64(u.ExpectedTotal)))),
		)
	} else {
		parts = append(parts, debugStyle.Render(utils.FormatBytes(uint64(u.BytesTotal))))
	}
	parts = append(parts, success2Style.Render(utils.FormatRate(u.Estimate.BytesPerSecond)))
	if u.Estimate.HasETA {
		parts = append(parts, debugStyle.Render("ETA "+utils.FormatDuration(u.Estimate.ETA)))
	}
	sep := " " + StyleSymbols["bullet"] + " "
	return streamStyle.Render("["+formatClock(u.Elapsed)+"]") + " " + strings.Join(parts, sep)
}

// RenderResult formats the terminal line of a finished transfer.
func RenderResult(res utils.TransferResult) string {
	if res.Failed() {
		return FError(fmt.Sprintf("%s %v", StyleSymbols["fail"], res.Err))
	}
	return fmt.Sprintf("%s %s %s %s",
		FSuccess(StyleSymbols["pass"]+" "+utils.FormatBytes(uint64(res.BytesTotal))+" in "+utils.FormatDuration(res.Elapsed)),
		StyleSymbols["bullet"],
		success2Style.Render(utils.FormatRate(res.AverageBytesPerSecond)),
		FDebug("(average)"),
	)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		width, _, err := term.GetSize(int(f.Fd()))
		if err == nil && width > 0 {
			return width
		}
	}
	return 80 // Default fallback width
}
