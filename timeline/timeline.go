package timeline

import "math"

// minStagger guards the reveal division when stagger is zero.
const minStagger = 0.001

// Cue is the scheduled reveal window of one point of interest.
type Cue struct {
	Index      int
	Start, End float64
}

// State is the animation state at one instant.
type State struct {
	ActiveIndex    int
	RevealProgress float64
	CameraZoom     float64
}

// Config holds the timeline parameters. A nil StartZoom or EndZoom falls
// back to the default zoom passed to ZoomAt.
type Config struct {
	Duration   float64
	IntroDelay float64
	Stagger    float64
	Ease       string
	StartZoom  *float64
	EndZoom    *float64
}

// BuildCues schedules cue i over [introDelay + i*stagger, introDelay + (i+1)*stagger).
func BuildCues(count int, introDelay, stagger float64) []Cue {
	cues := make([]Cue, 0, count)
	for i := 0; i < count; i++ {
		start := introDelay + float64(i)*stagger
		cues = append(cues, Cue{Index: i, Start: start, End: start + stagger})
	}
	return cues
}

// ZoomAt interpolates the camera zoom at t.
func ZoomAt(t float64, cfg Config, defaultZoom float64) float64 {
	if cfg.Duration <= 0 {
		return defaultZoom
	}
	start, end := defaultZoom, defaultZoom
	if cfg.StartZoom != nil {
		start = *cfg.StartZoom
	}
	if cfg.EndZoom != nil {
		end = *cfg.EndZoom
	}
	p := Easing(cfg.Ease)(clamp01(t / cfg.Duration))
	return lerp(start, end, p)
}

// StateAt resolves the active cue at t. The highest-index cue whose start has
// been reached wins, so overlapping windows resolve to the later POI. Before
// the first cue, index 0 is active with no reveal.
func StateAt(t float64, count int, cfg Config, defaultZoom float64) State {
	state := State{CameraZoom: ZoomAt(t, cfg, defaultZoom)}
	for _, cue := range BuildCues(count, cfg.IntroDelay, cfg.Stagger) {
		if t >= cue.Start {
			state.ActiveIndex = cue.Index
			state.RevealProgress = clamp01((t - cue.Start) / math.Max(cfg.Stagger, minStagger))
		}
	}
	return state
}

// lerp is written so that p=0 yields a and p=1 yields b exactly.
func lerp(a, b, p float64) float64 {
	return a*(1-p) + b*p
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
