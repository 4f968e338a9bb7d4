package transfer

import (
	"context"
	"io"

	"github.com/tanq16/dlspeed/internal/utils"
)

// Response is what a Source hands back once the remote side has answered.
type Response struct {
	Status        string // protocol status line, e.g. "HTTP/1.1 200 OK"
	StatusCode    int
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
}

// Source opens one streaming transfer. On a protocol-level failure it may
// return both a Response (for the status line) and an error; the Body is
// already closed in that case.
type Source interface {
	Open(ctx context.Context, req utils.Request) (*Response, error)
}
