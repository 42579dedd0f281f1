package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

var (
	initMu   sync.Mutex
	initDone bool
)

// Initialize starts PortAudio once. Later calls are no-ops until Terminate.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initDone {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "initialize portaudio")
	}
	initDone = true
	return nil
}

// Terminate balances a successful Initialize.
func Terminate() {
	initMu.Lock()
	defer initMu.Unlock()
	if !initDone {
		return
	}
	_ = portaudio.Terminate()
	initDone = false
}
