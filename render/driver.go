package render

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/olablt/geovideo/camera"
	"github.com/olablt/geovideo/tiles/worker"
)

// FrameRenderer draws the frame at t seconds.
type FrameRenderer interface {
	RenderFrame(t float64, cam camera.State) (*image.RGBA, error)
}

// Driver renders frames 0..Frames-1 at t = i/FPS and hands them to a sink in
// index order. Frames are rendered in batches of 2*Workers on a worker pool.
type Driver struct {
	Renderer FrameRenderer
	Camera   camera.State
	FPS      int
	Frames   int
	Workers  int
	Progress io.Writer // nil hides the progress bar
}

func (d *Driver) Run(ctx context.Context, sink FrameSink) error {
	workers := max(1, d.Workers)
	batchSize := workers * 2
	bar := newBar(d.Progress, d.Frames, "Rendering")
	defer bar.Finish()

	start := time.Now()
	batch := make([]*image.RGBA, batchSize)
	for first := 0; first < d.Frames; first += batchSize {
		n := min(batchSize, d.Frames-first)
		pool := worker.NewPool(workers)
		for i := 0; i < n; i++ {
			index := first + i
			slot := i
			pool.Submit(worker.Task{Ctx: ctx, Work: func() error {
				img, err := d.Renderer.RenderFrame(float64(index)/float64(d.FPS), d.Camera)
				if err != nil {
					return fmt.Errorf("frame %d: %w", index, err)
				}
				batch[slot] = img
				return nil
			}})
		}
		if err := pool.Wait(); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := sink.WriteFrame(first+i, batch[i]); err != nil {
				return err
			}
			batch[i] = nil
			_ = bar.Add(1)
		}
	}
	slog.Info("rendered frames", "frames", d.Frames, "workers", workers, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func newBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}
