package audio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Device describes an audio device in a Go-friendly way.
type Device struct {
	Index           int
	Name            string
	HostAPI         string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	Latency         time.Duration
	IsDefaultInput  bool
	IsDefaultOutput bool

	info *portaudio.DeviceInfo
}

// Label is the "[index] name" form accepted back by Resolve.
func (d Device) Label() string {
	return fmt.Sprintf("[%d] %s", d.Index, d.Name)
}

// Lister enumerates devices in a stable order.
type Lister interface {
	Devices() ([]Device, error)
	DefaultInput() (Device, error)
}

// Stream is a blocking interleaved float32 input stream.
type Stream interface {
	// Read fills buf with one block. It returns ErrInputOverflowed when data
	// was dropped but buf still holds valid samples.
	Read(ctx context.Context, buf []float32) error
	Close() error
}

// Backend lists devices and opens blocking input streams on them.
type Backend interface {
	Lister
	Open(dev Device, channels, frames int) (Stream, error)
}

// PortAudio is the Backend backed by the system PortAudio library. The zero
// value is ready to use once Initialize has succeeded.
type PortAudio struct{}

// Devices returns every device in PortAudio enumeration order.
func (PortAudio) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "list audio devices")
	}

	defaultIn := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultIn = def.Index
	}

	devices := make([]Device, 0, len(infos))
	for _, d := range infos {
		if d == nil {
			continue
		}
		devices = append(devices, fromInfo(d, defaultIn))
	}
	return devices, nil
}

// DefaultInput returns the system default input device.
func (PortAudio) DefaultInput() (Device, error) {
	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		return Device{}, errors.Wrap(err, "default input device")
	}
	if def == nil || def.MaxInputChannels <= 0 {
		return Device{}, errors.New("default device has no input channels")
	}
	return fromInfo(def, def.Index), nil
}

func fromInfo(d *portaudio.DeviceInfo, defaultIn int) Device {
	dev := Device{
		Index:           d.Index,
		Name:            d.Name,
		MaxInput:        d.MaxInputChannels,
		MaxOutput:       d.MaxOutputChannels,
		DefaultSampleHz: d.DefaultSampleRate,
		Latency:         d.DefaultLowInputLatency,
		IsDefaultInput:  d.Index == defaultIn,
		info:            d,
	}
	if d.HostApi != nil {
		dev.HostAPI = d.HostApi.Name
		if out := d.HostApi.DefaultOutputDevice; out != nil {
			dev.IsDefaultOutput = out.Index == d.Index
		}
	}
	return dev
}

// ListDevices returns the input-capable devices of l sorted by host and name.
func ListDevices(l Lister) ([]Device, error) {
	all, err := l.Devices()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(all))
	for _, d := range all {
		if d.MaxInput > 0 {
			devices = append(devices, d)
		}
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
	return devices, nil
}
