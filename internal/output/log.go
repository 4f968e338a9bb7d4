package output

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/dlspeed/internal/utils"
)

// Log reports progress as structured log events, for non-interactive runs
// where a redrawn line is useless (CI logs, files).
type Log struct {
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time
	current  string
	lastLog  time.Time
}

func NewLog(logger zerolog.Logger, interval time.Duration) *Log {
	if interval <= 0 {
		interval = time.Second
	}
	return &Log{logger: logger, interval: interval, now: time.Now}
}

func (l *Log) Report(u utils.Update) {
	now := l.now()
	if l.current == u.TransferID && now.Sub(l.lastLog) < l.interval {
		return
	}
	if l.current != u.TransferID {
		l.current = u.TransferID
		l.logger.Info().Str("transfer", u.TransferID).Str("method", u.Request.Method).Str("url", u.Request.URL).
			Str("status", u.Status).Dur("latency", u.Latency).Msg("transfer started")
	}
	l.lastLog = now
	ev := l.logger.Info().Str("transfer", u.TransferID).Int64("bytes", u.BytesTotal).
		Str("speed", utils.FormatRate(u.Estimate.BytesPerSecond))
	if pct, ok := u.Percent(); ok {
		ev = ev.Float64("percent", pct)
	}
	if u.Estimate.HasETA {
		ev = ev.Dur("eta", u.Estimate.ETA)
	}
	ev.Msg("progress")
}

func (l *Log) Finish(res utils.TransferResult) {
	l.current = ""
	if res.Failed() {
		l.logger.Error().Str("transfer", res.ID).Str("url", res.Request.URL).Str("status", res.Status).
			Int64("bytes", res.BytesTotal).Err(res.Err).Msg("transfer failed")
		return
	}
	l.logger.Info().Str("transfer", res.ID).Str("url", res.Request.URL).Str("status", res.Status).
		Int64("bytes", res.BytesTotal).Dur("elapsed", res.Elapsed).
		Str("speed", utils.FormatRate(res.AverageBytesPerSecond)).Msg("transfer finished")
}
