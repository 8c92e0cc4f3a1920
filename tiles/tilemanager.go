package tiles

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/olablt/geovideo/metrics"
)

// TileManager serves tiles of one source from a Store, fetching on a miss.
// Fetches retry up to maxRetries times with a fixed throttle before each attempt.
type TileManager struct {
	source     TileSource
	store      Store
	fetcher    Fetcher
	maxRetries int
	throttle   time.Duration
	sleep      func(time.Duration)

	loading   map[TileKey]*pendingTile
	loadingMu sync.Mutex
}

type pendingTile struct {
	done chan struct{}
	img  image.Image
	err  error
}

func NewTileManager(source TileSource, store Store, fetcher Fetcher, maxRetries int, throttle time.Duration) *TileManager {
	return &TileManager{
		source:     source,
		store:      store,
		fetcher:    fetcher,
		maxRetries: max(1, maxRetries),
		throttle:   throttle,
		sleep:      time.Sleep,
		loading:    make(map[TileKey]*pendingTile),
	}
}

func (tm *TileManager) Name() string        { return tm.source.Name }
func (tm *TileManager) Attribution() string { return tm.source.Attribution }
func (tm *TileManager) Source() TileSource  { return tm.source }

// SetSleep replaces the throttle wait, mainly for tests.
func (tm *TileManager) SetSleep(sleep func(time.Duration)) {
	tm.sleep = sleep
}

// GetTileKey returns a unique string key for a tile
func GetTileKey(tile Tile) string {
	return fmt.Sprintf("%d/%d/%d", tile.Zoom, tile.X, tile.Y)
}

func (tm *TileManager) GetTile(tile Tile) (image.Image, error) {
	key := TileKey{Provider: tm.source.Name, Tile: tile}

	// Check store first
	img, ok, err := tm.store.Get(key)
	if err != nil {
		return nil, err
	}
	if ok {
		metrics.TileCacheHits.WithLabelValues(key.Provider).Inc()
		return img, nil
	}
	metrics.TileCacheMisses.WithLabelValues(key.Provider).Inc()

	// Join a fetch of the same key already in flight
	tm.loadingMu.Lock()
	if p, exists := tm.loading[key]; exists {
		tm.loadingMu.Unlock()
		<-p.done
		return p.img, p.err
	}
	p := &pendingTile{done: make(chan struct{})}
	tm.loading[key] = p
	tm.loadingMu.Unlock()

	p.img, p.err = tm.fetch(key)
	close(p.done)

	tm.loadingMu.Lock()
	delete(tm.loading, key)
	tm.loadingMu.Unlock()

	return p.img, p.err
}

func (tm *TileManager) fetch(key TileKey) (image.Image, error) {
	url := tm.source.URL(key.Tile)

	var lastErr error
	for attempt := 1; attempt <= tm.maxRetries; attempt++ {
		if tm.throttle > 0 {
			tm.sleep(tm.throttle)
		}
		metrics.TileFetchAttempts.WithLabelValues(key.Provider).Inc()

		img, err := tm.download(url)
		if err != nil {
			lastErr = err
			slog.Warn("tile fetch attempt failed",
				"tile", key.String(), "attempt", attempt, "max", tm.maxRetries, "error", err)
			continue
		}

		if err := tm.store.Put(key, img); err != nil {
			return nil, fmt.Errorf("persist tile %s: %w", key, err)
		}
		slog.Debug("fetched tile", "tile", key.String(), "attempt", attempt)
		return img, nil
	}

	metrics.TileFetchFailures.WithLabelValues(key.Provider).Inc()
	return nil, &TileFetchError{
		Provider: key.Provider,
		Zoom:     key.Tile.Zoom,
		X:        key.Tile.X,
		Y:        key.Tile.Y,
		Attempts: tm.maxRetries,
		Err:      lastErr,
	}
}

func (tm *TileManager) download(url string) (image.Image, error) {
	body, err := tm.fetcher.Fetch(url)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode tile image: %w", err)
	}
	return imaging.Clone(img), nil
}
