package compositor

import (
	"image"
	"testing"
)

func fixedSize(w, h int) MeasureFunc {
	return func(string) (int, int) { return w, h }
}

func TestPlaceLabelsShiftsThenDrops(t *testing.T) {
	anchor := image.Pt(0, 0)
	labels := []Label{{"a", anchor}, {"b", anchor}, {"c", anchor}}
	got := PlaceLabels(labels, fixedSize(100, 20), DefaultLabelOptions)

	if len(got) != 2 {
		t.Fatalf("placed %d labels, want 2 (third dropped)", len(got))
	}
	if got[0].Position != image.Pt(16, -28) {
		t.Errorf("first position = %v, want (16,-28)", got[0].Position)
	}
	if got[0].Box != image.Rect(8, -36, 124, 0) {
		t.Errorf("first box = %v", got[0].Box)
	}
	// Shifts of 18 and 36 still touch the first box; 54 is the first clear one.
	if got[1].Position != image.Pt(16, 26) {
		t.Errorf("second position = %v, want (16,26)", got[1].Position)
	}
}

func TestPlaceLabelsNeverOverlap(t *testing.T) {
	var labels []Label
	for i := 0; i < 40; i++ {
		labels = append(labels, Label{Text: "poi", Anchor: image.Pt((i*37)%300, (i*53)%400)})
	}
	placed := PlaceLabels(labels, fixedSize(60, 24), DefaultLabelOptions)
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			if overlaps(placed[i].Box, placed[j].Box) {
				t.Errorf("labels %d and %d overlap: %v %v", i, j, placed[i].Box, placed[j].Box)
			}
		}
	}
}

func TestOverlapsIsClosed(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	if !overlaps(a, image.Rect(10, 10, 20, 20)) {
		t.Error("corner-touching boxes should overlap")
	}
	if overlaps(a, image.Rect(11, 0, 20, 10)) {
		t.Error("separated boxes should not overlap")
	}
}
