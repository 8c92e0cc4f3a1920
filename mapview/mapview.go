package mapview

import (
	"image"
	"log/slog"
	"math"
	"time"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"

	"github.com/olablt/geovideo/camera"
)

const (
	cachedFrames  = 120
	renderAhead   = 3
	scrubStepSecs = 0.25
)

// FrameRenderer draws the frame at t seconds.
type FrameRenderer interface {
	RenderFrame(t float64, cam camera.State) (*image.RGBA, error)
}

// Player loops an animation in real time. Press toggles pause, scroll scrubs.
// Frames render in the background; until one is ready the last shown frame
// stays on screen.
type Player struct {
	Renderer FrameRenderer
	Camera   camera.State
	FPS      int
	Duration float64

	refresh chan struct{}
	frames  *frameCache
	slots   chan struct{}

	started  time.Time
	offset   float64
	paused   bool
	lastOp   paint.ImageOp
	hasFrame bool
}

// New returns a Player that signals refresh whenever a background render
// completes. workers bounds concurrent renders.
func New(r FrameRenderer, cam camera.State, fps int, duration float64, workers int, refresh chan struct{}) *Player {
	return &Player{
		Renderer: r,
		Camera:   cam,
		FPS:      fps,
		Duration: duration,
		refresh:  refresh,
		frames:   newFrameCache(cachedFrames),
		slots:    make(chan struct{}, max(1, workers)),
	}
}

// Position is the playback time in seconds, in [0, Duration).
func (p *Player) Position(now time.Time) float64 {
	t := p.offset
	if !p.paused && !p.started.IsZero() {
		t += now.Sub(p.started).Seconds()
	}
	return wrap(t, p.Duration)
}

func (p *Player) TogglePause(now time.Time) {
	p.offset = p.Position(now)
	p.started = now
	p.paused = !p.paused
}

func (p *Player) Scrub(now time.Time, delta float64) {
	p.offset = wrap(p.Position(now)+delta, p.Duration)
	p.started = now
}

func wrap(t, d float64) float64 {
	if d <= 0 {
		return 0
	}
	t = math.Mod(t, d)
	if t < 0 {
		t += d
	}
	return t
}

func (p *Player) frameIndex(t float64) int {
	return int(t * float64(p.FPS))
}

func (p *Player) frameCount() int {
	return max(1, int(math.Ceil(p.Duration*float64(p.FPS))))
}

func (p *Player) Layout(gtx layout.Context) layout.Dimensions {
	tag := p
	if p.started.IsZero() {
		p.started = gtx.Now
	}

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  tag,
			Kinds:   pointer.Press | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -10, Max: 10},
		})
		if !ok {
			break
		}
		x, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch x.Kind {
		case pointer.Press:
			p.TogglePause(gtx.Now)
		case pointer.Scroll:
			if x.Scroll.Y < 0 {
				p.Scrub(gtx.Now, -scrubStepSecs)
			} else if x.Scroll.Y > 0 {
				p.Scrub(gtx.Now, scrubStepSecs)
			}
		}
	}

	index := p.frameIndex(p.Position(gtx.Now))
	for i := 0; i <= renderAhead; i++ {
		p.request((index + i) % p.frameCount())
	}
	if imgOp, ok := p.frames.Get(index); ok {
		p.lastOp, p.hasFrame = imgOp, true
	}

	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, tag)

	if p.hasFrame {
		widget.Image{Src: p.lastOp, Fit: widget.Contain, Position: layout.Center}.Layout(gtx)
	}
	if !p.paused {
		gtx.Execute(op.InvalidateCmd{At: gtx.Now.Add(time.Second / time.Duration(max(1, p.FPS)))})
	}
	return layout.Dimensions{Size: size}
}

// request renders index in the background unless it is cached or in flight.
func (p *Player) request(index int) {
	if !p.frames.Claim(index) {
		return
	}
	go func() {
		p.slots <- struct{}{}
		defer func() { <-p.slots }()

		img, err := p.Renderer.RenderFrame(float64(index)/float64(p.FPS), p.Camera)
		if err != nil {
			slog.Error("preview frame failed", "frame", index, "error", err)
			p.frames.Release(index)
			return
		}
		p.frames.Set(index, paint.NewImageOp(img))
		select {
		case p.refresh <- struct{}{}:
		default:
		}
	}()
}
