package timeline

import (
	"sort"

	"github.com/tanema/gween/ease"
)

const (
	EaseLinear    = "linear"
	EaseInOut     = "ease_in_out"
	EaseInOutSine = "in_out_sine"
	EaseInOutQuad = "in_out_quad"
	EaseInOutCub  = "in_out_cubic"
	EaseOutCubic  = "out_cubic"
)

// EasingFunc remaps linear progress in [0,1]. It must map 0 to 0 and 1 to 1.
type EasingFunc func(p float64) float64

var easings = map[string]EasingFunc{
	EaseLinear:    func(p float64) float64 { return p },
	EaseInOut:     smoothstep,
	EaseInOutSine: fromTween(ease.InOutSine),
	EaseInOutQuad: fromTween(ease.InOutQuad),
	EaseInOutCub:  fromTween(ease.InOutCubic),
	EaseOutCubic:  fromTween(ease.OutCubic),
}

func smoothstep(p float64) float64 {
	return p * p * (3 - 2*p)
}

// fromTween adapts a gween tween over [0,1] to an EasingFunc. The endpoints
// are pinned so float32 rounding never leaks into the ends of an animation.
func fromTween(fn ease.TweenFunc) EasingFunc {
	return func(p float64) float64 {
		switch {
		case p <= 0:
			return 0
		case p >= 1:
			return 1
		}
		return float64(fn(float32(p), 0, 1, 1))
	}
}

// Easing returns the named easing, or linear for an unknown name.
func Easing(name string) EasingFunc {
	if fn, ok := easings[name]; ok {
		return fn
	}
	return easings[EaseLinear]
}

func HasEasing(name string) bool {
	_, ok := easings[name]
	return ok
}

func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
