package app

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// profiler appends per-frame section timings as CSV rows:
// timestamp, frame, section, milliseconds.
type profiler struct {
	mu     sync.Mutex
	out    io.WriteCloser
	logger *zerolog.Logger
	budget time.Duration
	frame  uint64
	start  time.Time
	last   time.Time
	now    func() time.Time
}

func newProfiler(path string, logger *zerolog.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("profiler disabled")
		return nil
	}
	p := newProfilerTo(f, logger)
	logger.Info().Str("path", path).Msg("profiling frames")
	return p
}

func newProfilerTo(out io.WriteCloser, logger *zerolog.Logger) *profiler {
	p := &profiler{out: out, logger: logger, now: time.Now}
	fmt.Fprintln(out, "timestamp,frame,section,delta_ms")
	return p
}

// beginFrame starts timing frame n. budget is the frame period; frames
// running over it are logged at debug level.
func (p *profiler) beginFrame(n uint64, budget time.Duration) {
	if p == nil {
		return
	}
	now := p.now()
	p.frame = n
	p.budget = budget
	p.start = now
	p.last = now
}

func (p *profiler) mark(section string) {
	if p == nil {
		return
	}
	now := p.now()
	p.write(section, now.Sub(p.last))
	p.last = now
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	total := p.now().Sub(p.start)
	p.write("frame_total", total)
	if p.budget > 0 && total > p.budget {
		p.logger.Debug().Uint64("frame", p.frame).Dur("took", total).Dur("budget", p.budget).Msg("slow frame")
	}
}

func (p *profiler) write(section string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	ms := float64(d) / float64(time.Millisecond)
	fmt.Fprintf(p.out, "%s,%d,%s,%.3f\n", p.now().Format(time.RFC3339Nano), p.frame, section, ms)
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out = nil
	return err
}
