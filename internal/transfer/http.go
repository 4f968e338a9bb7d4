package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/dlspeed/internal/utils"
)

const maxErrorBodyDrain = 64 * 1024

type HTTPSource struct {
	client utils.HTTPDoer
}

func NewHTTPSource(client utils.HTTPDoer) *HTTPSource {
	return &HTTPSource{client: client}
}

func (h *HTTPSource) Open(ctx context.Context, req utils.Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, &utils.TransferError{Kind: utils.ErrorProtocol, Op: "build request", URL: req.URL, Err: err}
	}
	httpReq.Header.Set("Connection", "keep-alive")
	resp, err := h.client.Do(httpReq)
	if err != nil {
		kind := utils.ErrorConnection
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = utils.ErrorTimeout
		}
		return nil, &utils.TransferError{Kind: kind, Op: req.Method, URL: req.URL, Err: err}
	}
	out := &Response{
		Status:        fmt.Sprintf("%s %s", resp.Proto, resp.Status),
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}
	log.Debug().Str("op", "transfer/http").Str("url", req.URL).Str("status", out.Status).Int64("length", out.ContentLength).Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		// drain a little so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyDrain))
		resp.Body.Close()
		out.Body = nil
		return out, &utils.TransferError{
			Kind:       utils.ErrorProtocol,
			Op:         req.Method,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("non-success status %q", resp.Status),
		}
	}
	if req.Method == http.MethodHead {
		out.ContentLength = 0
	}
	return out, nil
}
