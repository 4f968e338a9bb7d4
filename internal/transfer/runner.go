package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/dlspeed/internal/output"
	"github.com/tanq16/dlspeed/internal/sampler"
	"github.com/tanq16/dlspeed/internal/utils"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Options configures a Runner. Zero values select the defaults.
type Options struct {
	ChunkSize      int
	MaxDuration    time.Duration // 0 disables the cap
	IdleTimeout    time.Duration // 0 disables the watchdog
	SampleWindow   time.Duration
	SampleCapacity int
	Clock          Clock
}

// Runner measures one request at a time. Sources are looked up by URL scheme.
type Runner struct {
	opts    Options
	sources map[string]Source
}

func NewRunner(opts Options) *Runner {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = utils.DefaultChunkSize
	}
	if opts.MaxDuration < 0 {
		opts.MaxDuration = 0
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Runner{opts: opts, sources: make(map[string]Source)}
}

func (r *Runner) Register(scheme string, src Source) {
	r.sources[strings.ToLower(scheme)] = src
}

func (r *Runner) sourceFor(req utils.Request) (Source, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, &utils.TransferError{Kind: utils.ErrorProtocol, Op: "parse url", URL: req.URL, Err: err}
	}
	if !parsed.IsAbs() {
		return nil, &utils.TransferError{Kind: utils.ErrorProtocol, Op: "parse url", URL: req.URL, Err: errors.New("URL is not absolute")}
	}
	src, ok := r.sources[strings.ToLower(parsed.Scheme)]
	if !ok {
		return nil, &utils.TransferError{Kind: utils.ErrorProtocol, Op: "parse url", URL: req.URL, Err: fmt.Errorf("%w: %q", utils.ErrNotSupported, parsed.Scheme)}
	}
	return src, nil
}

// Run performs one transfer. Ordinary failures are recorded on the returned
// result, never returned as errors; rep.Finish is always called exactly once.
func (r *Runner) Run(ctx context.Context, ordinal int, req utils.Request, rep output.Reporter) utils.TransferResult {
	if rep == nil {
		rep = output.Discard
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	result := utils.TransferResult{
		ID:            uuid.NewString(),
		Ordinal:       ordinal,
		Request:       req,
		ExpectedTotal: -1,
	}
	logger := log.With().Str("op", "transfer/runner").Str("transfer", result.ID).Str("url", req.URL).Logger()
	finish := func() utils.TransferResult {
		ev := logger.Info().Str("status", result.Status)
		if result.Err != nil {
			ev = ev.Err(result.Err)
		}
		ev.Int64("bytes", result.BytesTotal).Dur("elapsed", result.Elapsed).Float64("bps", result.AverageBytesPerSecond).Msg("transfer finished")
		rep.Finish(result)
		return result
	}

	src, err := r.sourceFor(req)
	if err != nil {
		result.Err = err
		return finish()
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	logger.Debug().Str("method", req.Method).Msg("opening transfer")
	reqStart := r.opts.Clock.Now()
	resp, err := src.Open(ctx, req)
	result.Latency = r.opts.Clock.Now().Sub(reqStart)
	if resp != nil {
		result.Status = resp.Status
		result.StatusCode = resp.StatusCode
		result.ExpectedTotal = resp.ContentLength
	}
	if err != nil {
		result.Err = classify(ctx, req, "open", err, utils.ErrorConnection)
		return finish()
	}
	body := resp.Body
	if body == nil {
		body = http.NoBody
	}
	defer body.Close()

	// both budgets cover the body only; the header wait has its own timeout
	idle := newWatchdog(cancel, r.opts.IdleTimeout, utils.ErrIdle)
	defer idle.Stop()
	deadline := newWatchdog(cancel, r.opts.MaxDuration, utils.ErrMaxDuration)
	defer deadline.Stop()

	smp := sampler.New(sampler.Options{
		Window:        r.opts.SampleWindow,
		Capacity:      r.opts.SampleCapacity,
		ExpectedTotal: result.ExpectedTotal,
	})
	update := utils.Update{
		TransferID:    result.ID,
		Ordinal:       ordinal,
		Request:       req,
		Status:        result.Status,
		Latency:       result.Latency,
		ExpectedTotal: result.ExpectedTotal,
	}
	start := r.opts.Clock.Now()
	smp.Record(0, 0)
	rep.Report(update)

	buf := make([]byte, r.opts.ChunkSize)
	var total int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			idle.Kick()
			total += int64(n)
			elapsed := r.opts.Clock.Now().Sub(start)
			smp.Record(elapsed, total)
			update.BytesTotal = total
			update.Elapsed = elapsed
			update.Estimate = smp.Estimate()
			rep.Report(update)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			result.Err = classify(ctx, req, "read body", readErr, utils.ErrorStreamInterrupted)
			break
		}
	}
	result.BytesTotal = total
	result.Elapsed = r.opts.Clock.Now().Sub(start)
	if result.Err == nil {
		result.AverageBytesPerSecond = averageSpeed(total, result.Elapsed, smp)
	}
	return finish()
}

// averageSpeed is total bytes over total time. A zero elapsed time falls back
// to the last windowed estimate, which is 0 for a single instant chunk.
func averageSpeed(total int64, elapsed time.Duration, smp *sampler.Sampler) float64 {
	if secs := elapsed.Seconds(); secs > 0 {
		return float64(total) / secs
	}
	return smp.Estimate().BytesPerSecond
}

// classify prefers the context's cancellation cause over the raw error: a
// read that fails because the watchdog or deadline fired is a timeout, one
// that fails because the caller cancelled is an interruption.
func classify(ctx context.Context, req utils.Request, op string, err error, fallback utils.ErrorKind) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, utils.ErrMaxDuration), errors.Is(cause, utils.ErrIdle):
		return &utils.TransferError{Kind: utils.ErrorTimeout, Op: op, URL: req.URL, Err: cause}
	case cause != nil:
		return &utils.TransferError{Kind: utils.ErrorInterrupted, Op: op, URL: req.URL, Err: cause}
	}
	var te *utils.TransferError
	if errors.As(err, &te) {
		return err
	}
	return &utils.TransferError{Kind: fallback, Op: op, URL: req.URL, Err: err}
}
