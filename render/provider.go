package render

import (
	"github.com/olablt/geovideo/config"
	"github.com/olablt/geovideo/tiles"
)

// OpenProvider wires the configured tile provider to the on-disk cache, with
// an in-memory layer in front so each tile is decoded once per process.
func OpenProvider(cfg *config.Config) (tiles.Provider, error) {
	store := tiles.NewLayeredStore(tiles.NewMemoryStore(), tiles.NewDiskStore(cfg.Provider.CacheDir))
	fetcher := tiles.NewHTTPFetcher(cfg.Provider.UserAgent)
	return tiles.NewProvider(cfg.ProviderOptions(), store, fetcher)
}
