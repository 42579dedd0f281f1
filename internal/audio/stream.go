package audio

import (
	"context"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

const pollInterval = 2 * time.Millisecond

type paStream struct {
	stream *portaudio.Stream
	buf    []float32
	frames int
}

// Open starts a blocking input stream on dev at its native sample rate.
func (PortAudio) Open(dev Device, channels, frames int) (Stream, error) {
	if dev.info == nil {
		return nil, ErrNotPortAudio
	}
	if err := Initialize(); err != nil {
		return nil, err
	}

	buf := make([]float32, frames*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev.info,
			Channels: channels,
			Latency:  dev.info.DefaultLowInputLatency,
		},
		SampleRate:      dev.info.DefaultSampleRate,
		FramesPerBuffer: frames,
	}, buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stream")
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, errors.Wrap(err, "failed to start stream")
	}
	return &paStream{stream: stream, buf: buf, frames: frames}, nil
}

// Read waits until a full block is buffered, then copies it into out.
func (s *paStream) Read(ctx context.Context, out []float32) error {
	for {
		ready, err := s.stream.AvailableToRead()
		if err != nil {
			return errors.Wrap(err, "query stream")
		}
		if ready >= s.frames {
			break
		}
		select {
		case <-ctx.Done():
			return ErrReadTimedOut
		case <-time.After(pollInterval):
		}
	}

	err := s.stream.Read()
	copy(out, s.buf)
	if err == portaudio.InputOverflowed {
		return ErrInputOverflowed
	}
	if err != nil {
		return errors.Wrap(err, "read stream")
	}
	return nil
}

func (s *paStream) Close() error {
	if err := s.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		_ = s.stream.Close()
		return errors.Wrap(err, "stop stream")
	}
	return s.stream.Close()
}

// isInvalidStreamState reports whether err stems from stopping an already stopped stream.
func isInvalidStreamState(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
