package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tanq16/dlspeed/internal/utils"
)

func sampleUpdate(id string, bytesTotal int64, elapsed time.Duration) utils.Update {
	return utils.Update{
		TransferID:    id,
		Request:       utils.Request{Method: "GET", URL: "http://example.com/file"},
		Status:        "HTTP/1.1 200 OK",
		Latency:       20 * time.Millisecond,
		ExpectedTotal: 4 * 1024,
		BytesTotal:    bytesTotal,
		Elapsed:       elapsed,
		Estimate:      utils.SpeedEstimate{BytesPerSecond: 1024},
	}
}

func TestTerminalNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(TerminalOptions{Output: &buf})
	term.Report(sampleUpdate("a", 0, 0))
	term.Report(sampleUpdate("a", 2048, time.Second))
	term.Report(sampleUpdate("a", 4096, 2*time.Second))
	term.Finish(utils.TransferResult{
		ID:                    "a",
		Request:               utils.Request{Method: "GET", URL: "http://example.com/file"},
		Status:                "HTTP/1.1 200 OK",
		ExpectedTotal:         4096,
		BytesTotal:            4096,
		Elapsed:               2 * time.Second,
		AverageBytesPerSecond: 2048,
	})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "==>"))
	assert.Contains(t, out, "GET")
	assert.Contains(t, out, "http://example.com/file")
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, "20ms")
	assert.NotContains(t, out, "\r")
	assert.Contains(t, out, "4.00 KiB / 4.00 KiB")
	assert.Contains(t, out, "2.00 KiB/s")
	assert.Contains(t, out, StyleSymbols["pass"])
}

func TestTerminalThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	term := NewTerminal(TerminalOptions{
		Output:         &buf,
		Interactive:    true,
		RedrawInterval: 100 * time.Millisecond,
		Now:            func() time.Time { return now },
	})

	term.Report(sampleUpdate("a", 0, 0))
	now = now.Add(10 * time.Millisecond)
	term.Report(sampleUpdate("a", 1024, 10*time.Millisecond))
	now = now.Add(150 * time.Millisecond)
	term.Report(sampleUpdate("a", 2048, 160*time.Millisecond))
	assert.Equal(t, 2, strings.Count(buf.String(), "\r\033[K"))

	term.Finish(utils.TransferResult{ID: "a", Request: utils.Request{Method: "GET", URL: "http://example.com/file"}, BytesTotal: 2048, Err: errors.New("boom")})
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r\033[K"))
	assert.Contains(t, out, StyleSymbols["fail"])
	assert.Contains(t, out, "boom")
}

func TestTerminalSeparatesTransfers(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(TerminalOptions{Output: &buf})
	for _, id := range []string{"a", "b"} {
		term.Report(sampleUpdate(id, 4096, time.Second))
		term.Finish(utils.TransferResult{ID: id, Request: utils.Request{Method: "GET", URL: "http://example.com/" + id}, BytesTotal: 4096, Elapsed: time.Second, AverageBytesPerSecond: 4096})
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "==>"))
}

func TestTerminalFinishWithoutReport(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(TerminalOptions{Output: &buf})
	term.Finish(utils.TransferResult{
		ID:      "x",
		Request: utils.Request{Method: "GET", URL: "http://example.com/missing"},
		Status:  "HTTP/1.1 500 Internal Server Error",
		Err:     errors.New("status 500"),
	})
	out := buf.String()
	assert.Contains(t, out, "http://example.com/missing")
	assert.Contains(t, out, "HTTP/1.1 500 Internal Server Error")
	assert.Contains(t, out, "status 500")
	// nothing was received, so no progress line
	assert.NotContains(t, out, "KiB")
}

func TestRenderProgressUnknownTotal(t *testing.T) {
	u := sampleUpdate("a", 3*1024*1024, 3*time.Second)
	u.ExpectedTotal = -1
	u.Estimate = utils.SpeedEstimate{BytesPerSecond: 1024 * 1024}
	line := RenderProgress(u)
	assert.Contains(t, line, "[00:00:03]")
	assert.Contains(t, line, "3.00 MiB")
	assert.Contains(t, line, "1.00 MiB/s")
	assert.NotContains(t, line, "%")
	assert.NotContains(t, line, "ETA")
}

func TestRenderProgressKnownTotal(t *testing.T) {
	u := sampleUpdate("a", 1024, time.Second)
	u.Estimate = utils.SpeedEstimate{BytesPerSecond: 1024, ETA: 3 * time.Second, HasETA: true}
	line := RenderProgress(u)
	assert.Contains(t, line, "25.0%")
	assert.Contains(t, line, "1.00 KiB / 4.00 KiB")
	assert.Contains(t, line, "ETA 3s")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(StyleSymbols["hline"], 5)+strings.Repeat(" ", 5)+"]", progressBar(50, 100, 10))
	assert.Equal(t, "["+strings.Repeat(StyleSymbols["hline"], 10)+"]", progressBar(200, 100, 10))
	assert.Equal(t, "["+strings.Repeat(StyleSymbols["hline"], 10)+"]", progressBar(0, 0, 10))
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Report(utils.Update{Ordinal: 0, BytesTotal: 1})
	rec.Report(utils.Update{Ordinal: 1, BytesTotal: 2})
	rec.Report(utils.Update{Ordinal: 0, BytesTotal: 3})
	rec.Finish(utils.TransferResult{Ordinal: 0})
	assert.Len(t, rec.Updates(), 3)
	assert.Len(t, rec.UpdatesFor(0), 2)
	assert.Equal(t, int64(3), rec.UpdatesFor(0)[1].BytesTotal)
	assert.Len(t, rec.Results(), 1)
}

func TestStyleSymbols(t *testing.T) {
	keys := make([]string, 0, len(StyleSymbols))
	for k := range StyleSymbols {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"pass", "fail", "bullet", "hline"}, keys)
}
