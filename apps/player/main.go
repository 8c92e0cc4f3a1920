package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/joho/godotenv"

	"github.com/olablt/geovideo/camera"
	"github.com/olablt/geovideo/compositor"
	"github.com/olablt/geovideo/config"
	"github.com/olablt/geovideo/logging"
	"github.com/olablt/geovideo/mapview"
	"github.com/olablt/geovideo/render"
)

func main() {
	_ = godotenv.Load()
	input := flag.String("input", "examples/project.sample.json", "project JSON file")
	fit := flag.String("fit", camera.FitAll, "camera fit: all or center")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent frame renders")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()
	logging.Setup(*logLevel, "text")

	player, err := newPlayer(*input, *fit, *workers)
	if err != nil {
		slog.Error("player setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("geovideo preview"), app.Size(unit.Dp(432), unit.Dp(768)))

		var ops op.Ops
		go func() {
			for range player.refresh {
				w.Invalidate()
			}
		}()
		for {
			switch e := w.Event().(type) {
			case app.DestroyEvent:
				if e.Err != nil {
					slog.Error("window closed", "error", e.Err)
					os.Exit(1)
				}
				os.Exit(0)
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				player.view.Layout(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}()
	app.Main()
}

type playerApp struct {
	view    *mapview.Player
	refresh chan struct{}
}

func newPlayer(input, fit string, workers int) (*playerApp, error) {
	cfg, err := config.Load(input)
	if err != nil {
		return nil, err
	}
	provider, err := render.OpenProvider(cfg)
	if err != nil {
		return nil, err
	}
	cam, err := camera.Fit(cfg, fit)
	if err != nil {
		return nil, err
	}
	comp, err := compositor.New(cfg, provider, provider.Attribution())
	if err != nil {
		return nil, err
	}
	refresh := make(chan struct{}, 1)
	return &playerApp{
		view:    mapview.New(comp, cam, cfg.Style.FPS, cfg.Timeline.Duration, workers, refresh),
		refresh: refresh,
	}, nil
}
