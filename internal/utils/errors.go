package utils

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	ErrorConnection ErrorKind = iota
	ErrorProtocol
	ErrorStreamInterrupted
	ErrorTimeout
	ErrorInterrupted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorConnection:
		return "connection failure"
	case ErrorProtocol:
		return "protocol error"
	case ErrorStreamInterrupted:
		return "stream interrupted"
	case ErrorTimeout:
		return "timeout"
	case ErrorInterrupted:
		return "interrupted"
	default:
		return "error"
	}
}

// TransferError is recorded on a TransferResult; it never aborts the run.
type TransferError struct {
	Kind       ErrorKind
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	switch e.Kind {
	case ErrorProtocol:
		if e.StatusCode != 0 {
			return fmt.Sprintf("protocol error during %s for %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("protocol error during %s for %s: %v", e.Op, e.URL, e.Err)
	case ErrorConnection:
		return fmt.Sprintf("connection failure during %s for %s: %v", e.Op, e.URL, e.Err)
	case ErrorStreamInterrupted:
		return fmt.Sprintf("stream interrupted during %s for %s: %v", e.Op, e.URL, e.Err)
	case ErrorTimeout:
		return fmt.Sprintf("timeout during %s for %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s during %s for %s: %v", e.Kind, e.Op, e.URL, e.Err)
	}
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ErrorKindOf returns the kind of a TransferError anywhere in err's chain.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

var (
	ErrNoRequests   = errors.New("no valid requests supplied")
	ErrMaxDuration  = errors.New("transfer exceeded maximum duration")
	ErrIdle         = errors.New("no data received within idle timeout")
	ErrNotSupported = errors.New("unsupported URL scheme")
)

// ConfigError is fatal to the whole run and is reported before any transfer.
type ConfigError struct {
	Source string
	Line   int
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("configuration error at %s:%d: %v", e.Source, e.Line, e.Err)
	case e.Source != "":
		return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
