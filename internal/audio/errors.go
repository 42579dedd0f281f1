package audio

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a worker failure.
type Kind int

const (
	// DeviceUnavailable means no device matched the selector. The worker
	// waits and retries.
	DeviceUnavailable Kind = iota + 1
	// StreamFailure covers open, read and inactivity errors on a resolved
	// device. The worker cools down and re-resolves.
	StreamFailure
)

func (k Kind) String() string {
	switch k {
	case DeviceUnavailable:
		return "device unavailable"
	case StreamFailure:
		return "stream failure"
	default:
		return "unknown"
	}
}

var (
	ErrNoDevice        = errors.New("no matching input device")
	ErrReadTimedOut    = errors.New("read timed out")
	ErrInputOverflowed = errors.New("input overflowed")
	ErrNotPortAudio    = errors.New("device was not listed by portaudio")
)

// Failure is the single error type the worker acts on.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Cause lets errors.Cause walk through a Failure.
func (f *Failure) Cause() error { return f.Err }

func unavailable(op string, err error) error {
	return &Failure{Kind: DeviceUnavailable, Op: op, Err: err}
}

func streamFailure(op string, err error) error {
	return &Failure{Kind: StreamFailure, Op: op, Err: err}
}

// KindOf returns the failure kind carried by err, or 0 if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
