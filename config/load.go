package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/viper"

	"github.com/olablt/geovideo/tiles"
	"github.com/olablt/geovideo/timeline"
)

// EnvPrefix scopes env overrides: GEOVIDEO_PROVIDER_API_KEY → provider.api_key.
const EnvPrefix = "GEOVIDEO"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("style.width", 1080)
	v.SetDefault("style.height", 1920)
	v.SetDefault("style.fps", 30)
	v.SetDefault("style.margin_ratio", 0.12)
	v.SetDefault("style.font_path", "")
	v.SetDefault("style.subtitle", "")
	v.SetDefault("style.show_connectors", true)
	v.SetDefault("style.show_polygon", false)
	v.SetDefault("style.polygon_geojson", "")
	v.SetDefault("style.overlay_path", "")
	v.SetDefault("style.watermark_text", "© OpenStreetMap contributors")
	v.SetDefault("style.safe_margin_px", 80)
	v.SetDefault("style.ui_preset", PresetClassic)
	v.SetDefault("style.social_zoom_factor", 1.0)
	v.SetDefault("style.show_social_chrome", true)
	v.SetDefault("style.social_center_label", "Home")
	v.SetDefault("style.social_search_left_text", "Search")
	v.SetDefault("style.social_search_right_text", "Nearby")
	v.SetDefault("style.social_account_label", "@geovideo")

	v.SetDefault("timeline.duration", 10.0)
	v.SetDefault("timeline.intro_delay", 0.5)
	v.SetDefault("timeline.poi_stagger", 0.8)
	v.SetDefault("timeline.ring_period", 1.6)
	v.SetDefault("timeline.ease", timeline.EaseInOut)

	v.SetDefault("output.path", "output.mp4")
	v.SetDefault("output.crf", 18)
	v.SetDefault("output.bitrate", "")
	v.SetDefault("output.preset", "medium")
	v.SetDefault("output.faststart", true)

	v.SetDefault("audio.music_path", "")
	v.SetDefault("audio.voiceover_path", "")
	v.SetDefault("audio.music_volume", 0.5)
	v.SetDefault("audio.voiceover_volume", 1.0)
	v.SetDefault("audio.ducking_ratio", 0.35)
	v.SetDefault("audio.fade_in", 0.4)
	v.SetDefault("audio.fade_out", 0.6)

	v.SetDefault("provider.name", tiles.ProviderOSM)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.url_template", "")
	v.SetDefault("provider.cache_dir", ".cache/tiles")
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.throttle_s", 0.1)
	v.SetDefault("provider.user_agent", tiles.DefaultUserAgent)

	v.SetDefault("max_pois", 30)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the JSON project at path, applies defaults and env overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

// LoadReader is Load for an already opened JSON document.
func LoadReader(r io.Reader) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for i := range cfg.Pois {
		if cfg.Pois[i].Type == "" {
			cfg.Pois[i].Type = PoiOther
		}
	}
	if cfg.Style.PolygonGeoJSON != "" && len(cfg.Style.PolygonPoints) == 0 {
		points, err := LoadPolygonGeoJSON(cfg.Style.PolygonGeoJSON)
		if err != nil {
			return nil, err
		}
		cfg.Style.PolygonPoints = points
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPolygonGeoJSON returns the outer ring of the first polygon in a GeoJSON
// FeatureCollection, without the closing vertex.
func LoadPolygonGeoJSON(path string) ([]Coordinate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read polygon geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse polygon geojson %s: %w", path, err)
	}
	for _, f := range fc.Features {
		var ring orb.Ring
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				ring = g[0]
			}
		case orb.MultiPolygon:
			if len(g) > 0 && len(g[0]) > 0 {
				ring = g[0][0]
			}
		}
		if len(ring) == 0 {
			continue
		}
		if ring.Closed() && len(ring) > 1 {
			ring = ring[:len(ring)-1]
		}
		coords := make([]Coordinate, len(ring))
		for i, p := range ring {
			coords[i] = Coordinate{Lat: p.Lat(), Lon: p.Lon()}
		}
		return coords, nil
	}
	return nil, fmt.Errorf("polygon geojson %s: %w", path, tiles.ErrEmptyGeometry)
}

// Validate checks field ranges and the cross-field rules. Every problem is
// reported in one *ConfigurationError.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}
	if !timeline.HasEasing(c.Timeline.Ease) {
		problems = append(problems, fmt.Sprintf("timeline.ease: unknown easing %q (known: %s)",
			c.Timeline.Ease, strings.Join(timeline.EasingNames(), ", ")))
	}
	if len(c.Pois) > c.MaxPois {
		problems = append(problems, fmt.Sprintf("pois: too many POIs (%d > max_pois %d)", len(c.Pois), c.MaxPois))
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// describe turns "Config.style.width" + gt=0 into "style.width: must be gt 0, got -1".
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "required_if":
		return fmt.Sprintf("%s: is required when %s", field, fe.Param())
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += " " + fe.Param()
	}
	return fmt.Sprintf("%s: must be %s, got %v", field, rule, fe.Value())
}
