// Package host owns the real-time side of running a Machine: a dedicated
// goroutine that calls Tick in a hot loop, paced against wall-clock time so
// host CPU speed doesn't outrun the simulated console, forwarding frames and
// serial bytes to a consumer (typically internal/ui) over bounded channels
// that drop rather than block. Audio is not sent over a channel: the loop
// advances the APU, and the consumer pulls samples from it.
package host

import (
	"context"
	"time"

	"github.com/gbcore/gbcore/internal/emu"
)

// cpuHz is the DMG's base clock frequency; machine cycles are 4 ticks of it.
const cpuHz = 4_194_304

// Loop runs a *emu.Machine on its own goroutine and exposes its output over
// channels. The Machine itself is never touched from any other goroutine
// while the loop is running, preserving its single-threaded contract.
type Loop struct {
	m *emu.Machine

	frames  chan []byte
	serial  chan byte
	buttons chan emu.Buttons
	palette chan int
	errc    chan error
	done    chan struct{}
}

// NewLoop wraps m. Run advances m's audio by the machine-cycle count each
// Tick reports.
func NewLoop(m *emu.Machine) *Loop {
	return &Loop{
		m:       m,
		frames:  make(chan []byte, 1),
		serial:  make(chan byte, 256),
		buttons: make(chan emu.Buttons, 1),
		palette: make(chan int, 1),
		errc:    make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Frames yields completed framebuffers. The channel is capacity 1 and a new
// frame overwrites a stale, unconsumed one rather than blocking the
// simulation on a slow consumer.
func (l *Loop) Frames() <-chan []byte { return l.frames }

// Serial yields bytes completed by software-driven serial transfers.
func (l *Loop) Serial() <-chan byte { return l.serial }

// Err yields the single fatal error that ended the run, if any, then closes.
func (l *Loop) Err() <-chan error { return l.errc }

// SetButtons enqueues the latest joypad state for the run loop to apply
// before its next Tick. Like Frames, this overwrites a stale pending value
// rather than blocking.
func (l *Loop) SetButtons(b emu.Buttons) {
	select {
	case l.buttons <- b:
	default:
		select {
		case <-l.buttons:
		default:
		}
		select {
		case l.buttons <- b:
		default:
		}
	}
}

// CyclePalette enqueues a relative display-palette change (see
// emu.Machine.CyclePalette) to be applied on the loop goroutine before its
// next Tick, keeping all Machine mutation on that one goroutine.
func (l *Loop) CyclePalette(delta int) {
	select {
	case l.palette <- delta:
	default:
	}
}

// Run drives the Machine until ctx is cancelled or Tick returns a fatal
// error. It blocks; callers run it on its own goroutine. Run paces itself
// against wall-clock time using a token-bucket scaled to cpuHz so the
// simulation runs at roughly real console speed regardless of host speed.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer close(l.errc)

	var tokens float64
	last := time.Now()
	const maxBankedSeconds = 0.25 // cap catch-up after a stall (e.g. debugger pause)

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-l.buttons:
			l.m.SetButtons(b)
		default:
		}
		select {
		case d := <-l.palette:
			l.m.CyclePalette(d)
		default:
		}

		now := time.Now()
		tokens += now.Sub(last).Seconds() * cpuHz
		if tokens > maxBankedSeconds*cpuHz {
			tokens = maxBankedSeconds * cpuHz
		}
		last = now

		if tokens < 4 {
			time.Sleep(time.Millisecond)
			continue
		}

		res, err := l.m.Tick()
		if err != nil {
			select {
			case l.errc <- err:
			default:
			}
			return
		}
		tokens -= float64(res.MCycles * 4)
		l.m.AdvanceAudio(res.MCycles)

		if res.HasSerial {
			select {
			case l.serial <- res.SerialByte:
			default:
			}
		}
		if res.FrameReady {
			fb := make([]byte, len(l.m.Framebuffer()))
			copy(fb, l.m.Framebuffer())
			select {
			case l.frames <- fb:
			default:
				select {
				case <-l.frames:
				default:
				}
				select {
				case l.frames <- fb:
				default:
				}
			}
		}
	}
}

// Done reports when Run has returned, whether by cancellation or fatal error.
func (l *Loop) Done() <-chan struct{} { return l.done }
