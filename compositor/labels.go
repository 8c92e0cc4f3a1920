package compositor

import "image"

// Label is text anchored to a screen point.
type Label struct {
	Text   string
	Anchor image.Point
}

// LabelPlacement is where a label ended up. Position is the top-left of the
// text; Box is the padded collision box, both edges inclusive.
type LabelPlacement struct {
	Text     string
	Anchor   image.Point
	Position image.Point
	Box      image.Rectangle
}

type LabelOptions struct {
	Padding  int
	MaxShift int
	Step     int
	OffsetX  int
	OffsetY  int
}

var DefaultLabelOptions = LabelOptions{
	Padding:  8,
	MaxShift: 80,
	Step:     18,
	OffsetX:  16,
	OffsetY:  8,
}

// MeasureFunc reports the rendered width and height of text.
type MeasureFunc func(text string) (w, h int)

// PlaceLabels places labels greedily in input order. Each one is tried to the
// right of and above its anchor, then pushed down by Step until MaxShift.
// A label that collides at every shift is dropped.
func PlaceLabels(labels []Label, measure MeasureFunc, opts LabelOptions) []LabelPlacement {
	placed := make([]LabelPlacement, 0, len(labels))
	for _, l := range labels {
		w, h := measure(l.Text)
		for shift := 0; shift <= opts.MaxShift; shift += opts.Step {
			left := l.Anchor.X + opts.OffsetX
			top := l.Anchor.Y - h - opts.OffsetY + shift
			box := image.Rect(left-opts.Padding, top-opts.Padding, left+w+opts.Padding, top+h+opts.Padding)
			if !collides(box, placed) {
				placed = append(placed, LabelPlacement{
					Text:     l.Text,
					Anchor:   l.Anchor,
					Position: image.Pt(left, top),
					Box:      box,
				})
				break
			}
			if opts.Step <= 0 {
				break
			}
		}
	}
	return placed
}

func collides(box image.Rectangle, placed []LabelPlacement) bool {
	for _, p := range placed {
		if overlaps(box, p.Box) {
			return true
		}
	}
	return false
}

// overlaps treats both boxes as closed, so touching edges count.
func overlaps(a, b image.Rectangle) bool {
	return !(a.Max.X < b.Min.X || a.Min.X > b.Max.X || a.Max.Y < b.Min.Y || a.Min.Y > b.Max.Y)
}
