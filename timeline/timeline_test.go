package timeline

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func zoom(v float64) *float64 { return &v }

func TestBuildCues(t *testing.T) {
	cues := BuildCues(3, 1.0, 0.5)
	wantStart := []float64{1.0, 1.5, 2.0}
	wantEnd := []float64{1.5, 2.0, 2.5}
	if len(cues) != 3 {
		t.Fatalf("len = %d, want 3", len(cues))
	}
	for i, c := range cues {
		if c.Index != i || c.Start != wantStart[i] || c.End != wantEnd[i] {
			t.Errorf("cue %d = %+v, want [%v,%v)", i, c, wantStart[i], wantEnd[i])
		}
	}
	if got := BuildCues(0, 1, 1); len(got) != 0 {
		t.Errorf("BuildCues(0) = %v, want empty", got)
	}
}

func TestStateAtPicksLastReachedCue(t *testing.T) {
	cfg := Config{Duration: 5, IntroDelay: 0, Stagger: 1}
	s := StateAt(1.2, 2, cfg, 12)
	if s.ActiveIndex != 1 {
		t.Errorf("ActiveIndex = %d, want 1", s.ActiveIndex)
	}
	if !approxEqual(s.RevealProgress, 0.2, 1e-9) {
		t.Errorf("RevealProgress = %f, want 0.2", s.RevealProgress)
	}
}

func TestStateAtBeforeFirstCue(t *testing.T) {
	cfg := Config{Duration: 5, IntroDelay: 2, Stagger: 1}
	s := StateAt(0.5, 4, cfg, 12)
	if s.ActiveIndex != 0 || s.RevealProgress != 0 {
		t.Errorf("state before first cue = %+v, want index 0 reveal 0", s)
	}
}

func TestStateAtOverlapPrefersHigherIndex(t *testing.T) {
	// Stagger is tiny so every cue has started by t=1.
	cfg := Config{Duration: 5, IntroDelay: 0.5, Stagger: 0.01}
	s := StateAt(1, 5, cfg, 12)
	if s.ActiveIndex != 4 {
		t.Errorf("ActiveIndex = %d, want 4", s.ActiveIndex)
	}
	if s.RevealProgress != 1 {
		t.Errorf("RevealProgress = %f, want clamped to 1", s.RevealProgress)
	}
}

func TestStateAtActiveIndexMonotonic(t *testing.T) {
	cfg := Config{Duration: 10, IntroDelay: 0.5, Stagger: 0.8}
	prev := 0
	for ts := 0.0; ts <= 10; ts += 0.05 {
		s := StateAt(ts, 6, cfg, 12)
		if s.ActiveIndex < prev {
			t.Fatalf("ActiveIndex went from %d to %d at t=%f", prev, s.ActiveIndex, ts)
		}
		if s.RevealProgress < 0 || s.RevealProgress > 1 {
			t.Fatalf("RevealProgress %f out of range at t=%f", s.RevealProgress, ts)
		}
		prev = s.ActiveIndex
	}
}

func TestStateAtZeroStagger(t *testing.T) {
	cfg := Config{Duration: 5, IntroDelay: 1, Stagger: 0}
	s := StateAt(1.0005, 3, cfg, 12)
	if s.ActiveIndex != 2 {
		t.Errorf("ActiveIndex = %d, want 2", s.ActiveIndex)
	}
	if !approxEqual(s.RevealProgress, 0.5, 1e-6) {
		t.Errorf("RevealProgress = %f, want 0.5", s.RevealProgress)
	}
}

func TestZoomAtEndpoints(t *testing.T) {
	for _, name := range EasingNames() {
		cfg := Config{Duration: 7.3, Ease: name, StartZoom: zoom(11.3), EndZoom: zoom(15.7)}
		if got := ZoomAt(0, cfg, 3); got != 11.3 {
			t.Errorf("%s: ZoomAt(0) = %v, want 11.3", name, got)
		}
		if got := ZoomAt(7.3, cfg, 3); got != 15.7 {
			t.Errorf("%s: ZoomAt(duration) = %v, want 15.7", name, got)
		}
		if got := ZoomAt(100, cfg, 3); got != 15.7 {
			t.Errorf("%s: ZoomAt past the end = %v, want 15.7", name, got)
		}
		if got := ZoomAt(-1, cfg, 3); got != 11.3 {
			t.Errorf("%s: ZoomAt before the start = %v, want 11.3", name, got)
		}
	}
}

func TestZoomAtEasing(t *testing.T) {
	linear := Config{Duration: 4, Ease: EaseLinear, StartZoom: zoom(10), EndZoom: zoom(14)}
	if got := ZoomAt(1, linear, 0); !approxEqual(got, 11, 1e-9) {
		t.Errorf("linear ZoomAt(1) = %v, want 11", got)
	}
	smooth := linear
	smooth.Ease = EaseInOut
	// smoothstep(0.25) = 0.15625
	if got := ZoomAt(1, smooth, 0); !approxEqual(got, 10.625, 1e-9) {
		t.Errorf("ease_in_out ZoomAt(1) = %v, want 10.625", got)
	}
	if got := ZoomAt(2, smooth, 0); !approxEqual(got, 12, 1e-9) {
		t.Errorf("ease_in_out ZoomAt(mid) = %v, want 12", got)
	}
}

func TestZoomAtDefaults(t *testing.T) {
	if got := ZoomAt(3, Config{Duration: 0, StartZoom: zoom(5)}, 13); got != 13 {
		t.Errorf("zero duration ZoomAt = %v, want default 13", got)
	}
	if got := ZoomAt(3, Config{Duration: 6, EndZoom: zoom(15), Ease: EaseLinear}, 13); !approxEqual(got, 14, 1e-9) {
		t.Errorf("missing start zoom ZoomAt = %v, want 14", got)
	}
}

func TestEasingFallsBackToLinear(t *testing.T) {
	if HasEasing("bounce") {
		t.Fatal("bounce should not be registered")
	}
	if got := Easing("bounce")(0.3); got != 0.3 {
		t.Errorf("unknown easing(0.3) = %v, want 0.3", got)
	}
}

func TestEasingsAreMonotonic(t *testing.T) {
	for _, name := range EasingNames() {
		fn := Easing(name)
		prev := fn(0)
		for p := 0.01; p <= 1.0001; p += 0.01 {
			v := fn(math.Min(p, 1))
			if v < prev-1e-6 {
				t.Errorf("%s decreases at p=%f", name, p)
				break
			}
			prev = v
		}
	}
}
