package tiles

import (
	"image"
	"strconv"
	"strings"
	"time"
)

// Provider supplies decoded tiles for one raster source.
type Provider interface {
	GetTile(tile Tile) (image.Image, error)
	Name() string
	Attribution() string
}

// TileSource describes a templated raster endpoint.
type TileSource struct {
	Name        string
	URLTemplate string
	Attribution string
	APIKey      string
}

// URL fills the {z}, {x}, {y} and {api_key} placeholders.
func (s TileSource) URL(tile Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Zoom),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
		"{api_key}", s.APIKey,
	)
	return r.Replace(s.URLTemplate)
}

const (
	ProviderOSM    = "osm"
	ProviderMapbox = "mapbox"
	ProviderCustom = "custom"
	ProviderLocal  = "local"
)

var builtinSources = map[string]TileSource{
	ProviderOSM: {
		Name:        ProviderOSM,
		URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
	},
	ProviderMapbox: {
		Name:        ProviderMapbox,
		URLTemplate: "https://api.mapbox.com/styles/v1/mapbox/satellite-v9/tiles/256/{z}/{x}/{y}?access_token={api_key}",
		Attribution: "© Mapbox © OpenStreetMap",
	},
}

// ProviderOptions selects and tunes a provider.
type ProviderOptions struct {
	Name        string
	APIKey      string
	URLTemplate string
	MaxRetries  int
	Throttle    time.Duration
}

// NewProvider builds the named provider on top of store and fetcher. It fails
// fast with *UnknownProviderError before any rendering starts.
func NewProvider(opts ProviderOptions, store Store, fetcher Fetcher) (Provider, error) {
	var source TileSource
	switch opts.Name {
	case ProviderOSM:
		source = builtinSources[ProviderOSM]
	case ProviderMapbox:
		if opts.APIKey == "" {
			return nil, &UnknownProviderError{Name: opts.Name, Reason: "api_key is required"}
		}
		source = builtinSources[ProviderMapbox]
		source.APIKey = opts.APIKey
	case ProviderCustom:
		if opts.URLTemplate == "" {
			return nil, &UnknownProviderError{Name: opts.Name, Reason: "url_template is required"}
		}
		source = TileSource{
			Name:        ProviderCustom,
			URLTemplate: opts.URLTemplate,
			Attribution: "© Custom tiles",
			APIKey:      opts.APIKey,
		}
	case ProviderLocal:
		return NewLocalTileProvider(), nil
	default:
		return nil, &UnknownProviderError{Name: opts.Name}
	}

	return NewTileManager(source, store, fetcher, opts.MaxRetries, opts.Throttle), nil
}

// ProviderNames lists every name NewProvider accepts.
func ProviderNames() []string {
	return []string{ProviderOSM, ProviderMapbox, ProviderCustom, ProviderLocal}
}
