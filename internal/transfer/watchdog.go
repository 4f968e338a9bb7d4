package transfer

import (
	"context"
	"time"
)

// watchdog cancels with cause unless kicked within the timeout. A zero
// timeout disables it; a watchdog that is never kicked is a plain deadline.
type watchdog struct {
	timer   *time.Timer
	timeout time.Duration
}

func newWatchdog(cancel context.CancelCauseFunc, timeout time.Duration, cause error) *watchdog {
	wd := &watchdog{timeout: timeout}
	if timeout > 0 {
		wd.timer = time.AfterFunc(timeout, func() {
			cancel(cause)
		})
	}
	return wd
}

func (wd *watchdog) Kick() {
	if wd.timer != nil {
		wd.timer.Reset(wd.timeout)
	}
}

func (wd *watchdog) Stop() {
	if wd.timer != nil {
		wd.timer.Stop()
	}
}
