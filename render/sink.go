package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// FrameSink consumes frames in index order. Close finishes the output;
// Abort discards whatever was written so a failed render leaves nothing
// behind.
type FrameSink interface {
	WriteFrame(index int, img *image.RGBA) error
	Close() error
	Abort() error
}

// Finish closes sink after a successful run. After a failed run it aborts
// sink and returns runErr.
func Finish(sink FrameSink, runErr error) error {
	if runErr != nil {
		if err := sink.Abort(); err != nil {
			slog.Warn("could not discard partial output", "error", err)
		}
		return runErr
	}
	return sink.Close()
}

// PNGSink writes each frame as frame_00000.png, frame_00001.png, ... in Dir.
type PNGSink struct {
	Dir string

	written []int
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	return &PNGSink{Dir: dir}, nil
}

func (s *PNGSink) Path(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("frame_%05d.png", index))
}

func (s *PNGSink) WriteFrame(index int, img *image.RGBA) error {
	if err := imaging.Save(img, s.Path(index)); err != nil {
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	s.written = append(s.written, index)
	return nil
}

func (s *PNGSink) Close() error { return nil }

// Abort removes the frames this sink wrote. Other files in Dir are left alone.
func (s *PNGSink) Abort() error {
	var errs []error
	for _, index := range s.written {
		if err := os.Remove(s.Path(index)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.written = nil
	return errors.Join(errs...)
}
