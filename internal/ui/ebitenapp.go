// Package ui implements the ebiten-based windowed front end: framebuffer
// display, keyboard-to-joypad input, and PCM audio playback. It talks to a
// running Machine through internal/host's bounded channels (frames, serial,
// joypad, palette) so the simulation goroutine is never blocked by the
// render/input goroutine ebiten drives this type from; the only direct calls
// are the audio pull and the palette-name lookup noted on App.
package ui

import (
	"fmt"
	"time"

	"github.com/gbcore/gbcore/internal/emu"
	"github.com/gbcore/gbcore/internal/host"
	"github.com/gbcore/gbcore/internal/joypad"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App is the ebiten.Game implementation: it owns the window, the audio
// player, and the latest framebuffer received from the host loop.
type App struct {
	cfg  Config
	loop *host.Loop
	m    *emu.Machine // read-only from this goroutine: audio pull (mutex-guarded) and PaletteName (immutable table lookup)

	tex    *ebiten.Image
	fb     []byte
	paused bool

	paletteIdx int

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSrc    *apuStream
	audioMuted  bool

	toastMsg   string
	toastUntil time.Time
}

var ebitenKeys = map[int]ebiten.Key{
	joypad.KeyRight: ebiten.KeyRight,
	joypad.KeyLeft:  ebiten.KeyLeft,
	joypad.KeyUp:    ebiten.KeyUp,
	joypad.KeyDown:  ebiten.KeyDown,
	joypad.KeyA:     ebiten.KeyZ,
	joypad.KeyB:     ebiten.KeyX,
	joypad.KeyStart: ebiten.KeyEnter,
	joypad.KeySelect: ebiten.KeyShiftRight,
}

// NewApp wraps a running host.Loop. m is retained only for the
// thread-safe, read-only operations noted on the App struct; all state
// mutation goes through loop.
func NewApp(cfg Config, m *emu.Machine, loop *host.Loop) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{
		cfg:        cfg,
		loop:       loop,
		m:          m,
		fb:         make([]byte, 160*144*4),
		audioCtx:   audio.NewContext(48000),
		audioMuted: true,
	}
}

// Run hands control to ebiten's game loop; it blocks until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	if a.audioPlayer == nil {
		a.audioSrc = &apuStream{m: a.m, mono: !a.cfg.AudioStereo, muted: &a.audioMuted, lowLatency: a.cfg.AudioLowLatency}
		if p, err := a.audioCtx.NewPlayer(a.audioSrc); err == nil {
			a.audioPlayer = p
			a.applyPlayerBufferSize()
			a.audioPlayer.Play()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.paletteIdx++
		a.loop.CyclePalette(1)
		a.toast(fmt.Sprintf("Palette: %s", a.m.PaletteName(a.paletteIdx)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) {
		a.paletteIdx--
		a.loop.CyclePalette(-1)
		a.toast(fmt.Sprintf("Palette: %s", a.m.PaletteName(a.paletteIdx)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.audioMuted = !a.audioMuted
	}

	if a.paused {
		a.loop.SetButtons(emu.Buttons{})
	} else {
		pressed := func(key int) bool {
			k, ok := ebitenKeys[key]
			return ok && ebiten.IsKeyPressed(k)
		}
		b := joypad.Poll(pressed)
		a.loop.SetButtons(emu.Buttons{
			Up: b.Up, Down: b.Down, Left: b.Left, Right: b.Right,
			A: b.A, B: b.B, Start: b.Start, Select: b.Select,
		})
	}

	a.drainFrames()
	a.drainSerial()

	select {
	case err := <-a.loop.Err():
		return err
	default:
	}
	return nil
}

// drainFrames keeps only the most recently produced frame; the channel is
// capacity 1 so there is at most one to read per Update call in practice,
// but draining in a loop is cheap insurance against a burst.
func (a *App) drainFrames() {
	for {
		select {
		case fb := <-a.loop.Frames():
			a.fb = fb
		default:
			return
		}
	}
}

// drainSerial discards completed serial bytes; this front end doesn't pipe
// them anywhere, it just needs to keep the bounded channel from filling.
func (a *App) drainSerial() {
	for {
		select {
		case <-a.loop.Serial():
		default:
			return
		}
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.fb)
	screen.DrawImage(a.tex, nil)

	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 132)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}
