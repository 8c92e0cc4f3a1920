package compositor

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	regularSize = 32
	smallSize   = 24
	largeSize   = 44
)

// Fonts holds the parsed typeface. Faces cache glyphs and are not safe for
// concurrent use, so each frame asks for its own set.
type Fonts struct {
	ttf *truetype.Font
}

type faces struct {
	regular, small, large font.Face
}

// LoadFonts parses the TTF at path. An empty path, or one that cannot be
// read or parsed, falls back to Go Regular.
func LoadFonts(path string) (*Fonts, error) {
	if path != "" {
		f, err := parseFontFile(path)
		if err == nil {
			return &Fonts{ttf: f}, nil
		}
		slog.Warn("falling back to default font", "font_path", path, "error", err)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse default font: %w", err)
	}
	return &Fonts{ttf: f}, nil
}

func parseFontFile(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}

func (f *Fonts) face(size float64) font.Face {
	return truetype.NewFace(f.ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

func (f *Fonts) faces() faces {
	return faces{
		regular: f.face(regularSize),
		small:   f.face(smallSize),
		large:   f.face(largeSize),
	}
}

// measure returns the ink width and the ascent+descent height of s.
func measure(face font.Face, s string) (int, int) {
	m := face.Metrics()
	return font.MeasureString(face, s).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// Measurer adapts a face to PlaceLabels.
func Measurer(face font.Face) MeasureFunc {
	return func(text string) (int, int) { return measure(face, text) }
}
