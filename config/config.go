package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olablt/geovideo/tiles"
	"github.com/olablt/geovideo/timeline"
)

const (
	PresetClassic   = "classic"
	PresetSocialMap = "social_map"

	PoiSchool = "school"
	PoiMarket = "market"
	PoiFood   = "food"
	PoiOther  = "other"
)

// Config is one video project.
type Config struct {
	Center   Location       `mapstructure:"center"`
	Pois     []Poi          `mapstructure:"pois" validate:"dive"`
	Style    StyleConfig    `mapstructure:"style"`
	Timeline TimelineConfig `mapstructure:"timeline"`
	Output   OutputConfig   `mapstructure:"output"`
	Provider ProviderConfig `mapstructure:"provider"`
	Audio    AudioConfig    `mapstructure:"audio"`
	MaxPois  int            `mapstructure:"max_pois" validate:"gte=0"`
}

type Location struct {
	Name string  `mapstructure:"name" validate:"required"`
	Lat  float64 `mapstructure:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `mapstructure:"lon" validate:"gte=-180,lte=180"`
}

func (l Location) LatLng() tiles.LatLng {
	return tiles.LatLng{Lat: l.Lat, Lng: l.Lon}
}

type Poi struct {
	Location `mapstructure:",squash"`
	Type     string `mapstructure:"type" validate:"oneof=school market food other"`
}

// Coordinate is a polygon vertex. Unlike Location the name is optional.
type Coordinate struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `mapstructure:"lon" validate:"gte=-180,lte=180"`
}

type StyleConfig struct {
	Width          int          `mapstructure:"width" validate:"gt=0"`
	Height         int          `mapstructure:"height" validate:"gt=0"`
	FPS            int          `mapstructure:"fps" validate:"gt=0"`
	MarginRatio    float64      `mapstructure:"margin_ratio" validate:"gte=0,lt=1"`
	FontPath       string       `mapstructure:"font_path"`
	Subtitle       string       `mapstructure:"subtitle"`
	ShowConnectors bool         `mapstructure:"show_connectors"`
	ShowPolygon    bool         `mapstructure:"show_polygon"`
	PolygonPoints  []Coordinate `mapstructure:"polygon_points" validate:"dive"`
	PolygonGeoJSON string       `mapstructure:"polygon_geojson"`
	OverlayPath    string       `mapstructure:"overlay_path"`
	WatermarkText  string       `mapstructure:"watermark_text"`
	SafeMarginPx   int          `mapstructure:"safe_margin_px" validate:"gte=0"`

	UIPreset              string  `mapstructure:"ui_preset" validate:"oneof=classic social_map"`
	SocialZoomFactor      float64 `mapstructure:"social_zoom_factor" validate:"gte=1,lte=2"`
	ShowSocialChrome      bool    `mapstructure:"show_social_chrome"`
	SocialCenterLabel     string  `mapstructure:"social_center_label"`
	SocialSearchLeftText  string  `mapstructure:"social_search_left_text"`
	SocialSearchRightText string  `mapstructure:"social_search_right_text"`
	SocialAccountLabel    string  `mapstructure:"social_account_label"`
}

type TimelineConfig struct {
	Duration        float64 `mapstructure:"duration" validate:"gt=0"`
	IntroDelay      float64 `mapstructure:"intro_delay" validate:"gte=0"`
	PoiStagger      float64 `mapstructure:"poi_stagger" validate:"gte=0"`
	RingPeriod      float64 `mapstructure:"ring_period" validate:"gt=0"`
	Ease            string  `mapstructure:"ease"`
	CameraStartZoom *int    `mapstructure:"camera_start_zoom" validate:"omitempty,gte=1,lte=20"`
	CameraEndZoom   *int    `mapstructure:"camera_end_zoom" validate:"omitempty,gte=1,lte=20"`
}

type OutputConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	CRF       int    `mapstructure:"crf" validate:"gte=0,lte=51"`
	Bitrate   string `mapstructure:"bitrate"`
	Preset    string `mapstructure:"preset" validate:"required"`
	Faststart bool   `mapstructure:"faststart"`
}

type AudioConfig struct {
	MusicPath       string  `mapstructure:"music_path"`
	VoiceoverPath   string  `mapstructure:"voiceover_path"`
	MusicVolume     float64 `mapstructure:"music_volume" validate:"gte=0"`
	VoiceoverVolume float64 `mapstructure:"voiceover_volume" validate:"gte=0"`
	DuckingRatio    float64 `mapstructure:"ducking_ratio" validate:"gte=0,lte=1"`
	FadeIn          float64 `mapstructure:"fade_in" validate:"gte=0"`
	FadeOut         float64 `mapstructure:"fade_out" validate:"gte=0"`
}

type ProviderConfig struct {
	Name        string  `mapstructure:"name" validate:"oneof=osm mapbox custom local"`
	APIKey      string  `mapstructure:"api_key" validate:"required_if=Name mapbox"`
	URLTemplate string  `mapstructure:"url_template" validate:"required_if=Name custom"`
	CacheDir    string  `mapstructure:"cache_dir" validate:"required"`
	MaxRetries  int     `mapstructure:"max_retries" validate:"gte=1"`
	ThrottleS   float64 `mapstructure:"throttle_s" validate:"gte=0"`
	UserAgent   string  `mapstructure:"user_agent"`
}

// ConfigurationError lists every problem found in a config.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// PoiPoints returns the POI positions in order.
func (c *Config) PoiPoints() []tiles.LatLng {
	points := make([]tiles.LatLng, len(c.Pois))
	for i, p := range c.Pois {
		points[i] = p.LatLng()
	}
	return points
}

// PolygonPoints returns the polygon vertices, or nil when the polygon is hidden.
func (c *Config) PolygonPoints() []tiles.LatLng {
	if !c.Style.ShowPolygon {
		return nil
	}
	points := make([]tiles.LatLng, len(c.Style.PolygonPoints))
	for i, p := range c.Style.PolygonPoints {
		points[i] = tiles.LatLng{Lat: p.Lat, Lng: p.Lon}
	}
	return points
}

func (c *Config) TimelineConfig() timeline.Config {
	return timeline.Config{
		Duration:   c.Timeline.Duration,
		IntroDelay: c.Timeline.IntroDelay,
		Stagger:    c.Timeline.PoiStagger,
		Ease:       c.Timeline.Ease,
		StartZoom:  zoomPtr(c.Timeline.CameraStartZoom),
		EndZoom:    zoomPtr(c.Timeline.CameraEndZoom),
	}
}

func (c *Config) ProviderOptions() tiles.ProviderOptions {
	return tiles.ProviderOptions{
		Name:        c.Provider.Name,
		APIKey:      c.Provider.APIKey,
		URLTemplate: c.Provider.URLTemplate,
		MaxRetries:  c.Provider.MaxRetries,
		Throttle:    time.Duration(c.Provider.ThrottleS * float64(time.Second)),
	}
}

// FrameCount is the number of frames in the rendered video.
func (c *Config) FrameCount() int {
	return int(math.Ceil(c.Timeline.Duration * float64(c.Style.FPS)))
}

func zoomPtr(z *int) *float64 {
	if z == nil {
		return nil
	}
	f := float64(*z)
	return &f
}
