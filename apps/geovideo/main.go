package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"

	"github.com/olablt/geovideo/camera"
	"github.com/olablt/geovideo/compositor"
	"github.com/olablt/geovideo/config"
	"github.com/olablt/geovideo/logging"
	"github.com/olablt/geovideo/metrics"
	"github.com/olablt/geovideo/render"
	"github.com/olablt/geovideo/tiles"
)

const usage = `geovideo renders vertical map videos that reveal points of interest.

Usage:
  geovideo <command> [flags]

Commands:
  render       render a project to an MP4 (or PNG frames with --frames-dir)
  preview      render a single frame to an image
  validate     check a project file
  prefetch     download every tile a render will need
  clear-cache  delete cached tiles
  demo         render the bundled sample project

Run "geovideo <command> -h" for command flags.
`

type command func(ctx context.Context, args []string) error

var commands = map[string]command{
	"render":      runRender,
	"preview":     runPreview,
	"validate":    runValidate,
	"prefetch":    runPrefetch,
	"clear-cache": runClearCache,
	"demo":        runDemo,
}

func main() {
	_ = godotenv.Load()
	logging.Setup("info", "text")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error(os.Args[1]+" failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// logFlags adds --log-level and --log-format and returns a func that applies them.
func logFlags(fs *flag.FlagSet) func() {
	level := fs.String("log-level", "info", "log level: debug, info, warn, error")
	format := fs.String("log-format", "text", "log format: text or json")
	return func() { logging.Setup(*level, *format) }
}

type renderFlags struct {
	input, out, provider, apiKey, cacheDir, userAgent, fit string
	fps, width, height, workers                            int
	duration                                               float64
	metricsAddr, framesDir                                 string
	noPrefetch                                             bool
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var f renderFlags
	fs.StringVar(&f.input, "input", "", "project JSON file (required)")
	fs.StringVar(&f.out, "out", "", "output video path")
	fs.IntVar(&f.fps, "fps", 0, "frames per second")
	fs.Float64Var(&f.duration, "duration", 0, "video length in seconds")
	fs.IntVar(&f.width, "width", 0, "frame width")
	fs.IntVar(&f.height, "height", 0, "frame height")
	fs.StringVar(&f.provider, "provider", "", "tile provider: "+strings.Join(tiles.ProviderNames(), ", "))
	fs.StringVar(&f.apiKey, "api-key", "", "tile provider API key")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "tile cache directory")
	fs.StringVar(&f.userAgent, "user-agent", "", "HTTP User-Agent for tile requests")
	fs.StringVar(&f.fit, "fit", camera.FitAll, "camera fit: all or center")
	fs.IntVar(&f.workers, "workers", runtime.NumCPU(), "concurrent frame renders")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&f.framesDir, "frames-dir", "", "write PNG frames here instead of encoding a video")
	fs.BoolVar(&f.noPrefetch, "no-prefetch", false, "skip downloading tiles before rendering")
	applyLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyLogging()
	if f.input == "" {
		return errors.New("--input is required")
	}

	cfg, err := config.Load(f.input)
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}
	return renderProject(ctx, cfg, f)
}

// apply copies explicitly set flags over the project and revalidates it.
func (f renderFlags) apply(cfg *config.Config) error {
	if f.out != "" {
		cfg.Output.Path = f.out
	}
	if f.fps > 0 {
		cfg.Style.FPS = f.fps
	}
	if f.duration > 0 {
		cfg.Timeline.Duration = f.duration
	}
	if f.width > 0 {
		cfg.Style.Width = f.width
	}
	if f.height > 0 {
		cfg.Style.Height = f.height
	}
	if f.provider != "" {
		cfg.Provider.Name = f.provider
	}
	if f.apiKey != "" {
		cfg.Provider.APIKey = f.apiKey
	}
	if f.cacheDir != "" {
		cfg.Provider.CacheDir = f.cacheDir
	}
	if f.userAgent != "" {
		cfg.Provider.UserAgent = f.userAgent
	}
	return cfg.Validate()
}

func renderProject(ctx context.Context, cfg *config.Config, f renderFlags) error {
	stopMetrics := metrics.Serve(f.metricsAddr)
	defer stopMetrics()

	provider, err := render.OpenProvider(cfg)
	if err != nil {
		return err
	}
	cam, err := camera.Fit(cfg, f.fit)
	if err != nil {
		return err
	}
	comp, err := compositor.New(cfg, provider, provider.Attribution())
	if err != nil {
		return err
	}
	slog.Info("rendering",
		"input", f.input, "provider", provider.Name(), "variant", comp.Variant().Name,
		"zoom", cam.Zoom, "frames", cfg.FrameCount(), "size", fmt.Sprintf("%dx%d", cfg.Style.Width, cfg.Style.Height))

	if !f.noPrefetch {
		set := render.PlanTiles(cfg.TimelineConfig(), cam, cfg.Style.FPS, cfg.FrameCount(), cfg.Style.Width, cfg.Style.Height)
		if err := render.Prefetch(ctx, provider, set, f.workers, os.Stderr); err != nil {
			return fmt.Errorf("prefetch tiles: %w", err)
		}
	}

	var sink render.FrameSink
	if f.framesDir != "" {
		sink, err = render.NewPNGSink(f.framesDir)
	} else {
		sink, err = render.NewFFmpegSink(render.EncoderOptionsFor(cfg))
	}
	if err != nil {
		return err
	}

	driver := &render.Driver{
		Renderer: comp,
		Camera:   cam,
		FPS:      cfg.Style.FPS,
		Frames:   cfg.FrameCount(),
		Workers:  f.workers,
		Progress: os.Stderr,
	}
	if err := render.Finish(sink, driver.Run(ctx, sink)); err != nil {
		return err
	}

	dest := cfg.Output.Path
	if f.framesDir != "" {
		dest = f.framesDir
	}
	fmt.Printf("Video saved to %s\n", dest)
	return nil
}

func runPreview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	input := fs.String("input", "", "project JSON file (required)")
	frameTime := fs.Float64("frame-time", 3.2, "time of the frame in seconds")
	out := fs.String("out", "", "output image path, e.g. preview.png (required)")
	fit := fs.String("fit", camera.FitAll, "camera fit: all or center")
	applyLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyLogging()
	if *input == "" || *out == "" {
		return errors.New("--input and --out are required")
	}

	cfg, err := config.Load(*input)
	if err != nil {
		return err
	}
	provider, err := render.OpenProvider(cfg)
	if err != nil {
		return err
	}
	cam, err := camera.Fit(cfg, *fit)
	if err != nil {
		return err
	}
	comp, err := compositor.New(cfg, provider, provider.Attribution())
	if err != nil {
		return err
	}
	img, err := comp.RenderFrame(*frameTime, cam)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := imaging.Save(img, *out); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	fmt.Printf("Preview saved to %s\n", *out)
	return nil
}

func runValidate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	input := fs.String("input", "", "project JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("--input is required")
	}
	if _, err := config.Load(*input); err != nil {
		return err
	}
	fmt.Println("Valid configuration")
	return nil
}

func runPrefetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prefetch", flag.ContinueOnError)
	input := fs.String("input", "", "project JSON file (required)")
	fit := fs.String("fit", camera.FitAll, "camera fit: all or center")
	workers := fs.Int("workers", 8, "concurrent tile downloads")
	applyLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyLogging()
	if *input == "" {
		return errors.New("--input is required")
	}

	cfg, err := config.Load(*input)
	if err != nil {
		return err
	}
	provider, err := render.OpenProvider(cfg)
	if err != nil {
		return err
	}
	cam, err := camera.Fit(cfg, *fit)
	if err != nil {
		return err
	}
	set := render.PlanTiles(cfg.TimelineConfig(), cam, cfg.Style.FPS, cfg.FrameCount(), cfg.Style.Width, cfg.Style.Height)
	if err := render.Prefetch(ctx, provider, set, *workers, os.Stderr); err != nil {
		return err
	}
	fmt.Printf("Cached %d tiles in %s\n", len(set), cfg.Provider.CacheDir)
	return nil
}

func runClearCache(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear-cache", flag.ContinueOnError)
	provider := fs.String("provider", tiles.ProviderOSM, "cache namespace: osm, mapbox, custom, local, or all")
	cacheDir := fs.String("cache-dir", ".cache/tiles", "base cache directory")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.BoolVar(yes, "y", false, "shorthand for --yes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name := strings.ToLower(strings.TrimSpace(*provider))
	if name != tiles.AllProviders && !slices.Contains(tiles.ProviderNames(), name) {
		return fmt.Errorf("--provider must be one of: %s, %s", strings.Join(tiles.ProviderNames(), ", "), tiles.AllProviders)
	}
	target := *cacheDir
	if name != tiles.AllProviders {
		target = filepath.Join(*cacheDir, name)
	}
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		fmt.Println("No cache directory found to clear.")
		return nil
	}
	if !*yes && !confirm(fmt.Sprintf("Delete cache at '%s'?", target)) {
		fmt.Println("Cancelled.")
		return nil
	}
	removed, err := tiles.ClearCache(*cacheDir, name)
	if err != nil {
		return err
	}
	for _, r := range removed {
		fmt.Printf("Cleared cache: %s\n", r)
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func runDemo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	var f renderFlags
	fs.StringVar(&f.input, "input", filepath.Join("examples", "project.sample.json"), "sample project")
	fs.StringVar(&f.out, "out", "demo.mp4", "output video path")
	fs.StringVar(&f.framesDir, "frames-dir", "", "write PNG frames here instead of encoding a video")
	offline := fs.Bool("offline", false, "use synthetic local tiles instead of the network")
	fs.IntVar(&f.workers, "workers", runtime.NumCPU(), "concurrent frame renders")
	applyLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyLogging()
	f.fit = camera.FitAll
	if *offline {
		f.provider = tiles.ProviderLocal
	}

	cfg, err := config.Load(f.input)
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}
	return renderProject(ctx, cfg, f)
}
