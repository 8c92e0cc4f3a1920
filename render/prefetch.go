package render

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/paulmach/orb/maptile"

	"github.com/olablt/geovideo/camera"
	"github.com/olablt/geovideo/compositor"
	"github.com/olablt/geovideo/tiles"
	"github.com/olablt/geovideo/tiles/worker"
	"github.com/olablt/geovideo/timeline"
)

// PlanTiles collects every tile the basemap will request over frames
// 0..frames-1, across all integer zoom levels the timeline passes through.
func PlanTiles(tl timeline.Config, cam camera.State, fps, frames, width, height int) maptile.Set {
	zooms := make(map[int]bool)
	for i := 0; i < frames; i++ {
		z := timeline.ZoomAt(float64(i)/float64(fps), tl, float64(cam.Zoom))
		zooms[compositor.EffectiveZoom(z)] = true
	}
	set := make(maptile.Set)
	for z := range zooms {
		vp := tiles.NewViewport(cam.Center, z, width, height)
		for _, t := range vp.Tiles() {
			set[maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Zoom))] = true
		}
		slog.Debug("planned zoom level", "zoom", z, "bounds", vp.Bounds())
	}
	return set
}

// Prefetch warms the tile store with set using a bounded worker pool. The
// first tile failure stops the remaining fetches.
func Prefetch(ctx context.Context, tg compositor.TileGetter, set maptile.Set, workers int, progress io.Writer) error {
	list := make([]maptile.Tile, 0, len(set))
	for t := range set {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	bar := newBar(progress, len(list), "Downloading tiles")
	defer bar.Finish()

	pool := worker.NewPool(workers)
	for _, t := range list {
		tile := tiles.Tile{X: int(t.X), Y: int(t.Y), Zoom: int(t.Z)}
		pool.Submit(worker.Task{Ctx: ctx, Work: func() error {
			if _, err := tg.GetTile(tile); err != nil {
				return err
			}
			_ = bar.Add(1)
			return nil
		}})
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	slog.Info("prefetched tiles", "tiles", len(list))
	return nil
}
