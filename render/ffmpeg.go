package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/olablt/geovideo/compositor"
	"github.com/olablt/geovideo/config"
)

// EncoderOptions describe the output file and its optional audio bed.
type EncoderOptions struct {
	Path     string
	Width    int
	Height   int
	FPS      int
	Duration float64
	Output   config.OutputConfig
	Audio    config.AudioConfig

	// MusicLength is the music track's length in seconds, 0 when unknown.
	MusicLength float64
}

// EncoderOptionsFor probes the music track so its fade-out lands on the
// last second actually heard.
func EncoderOptionsFor(cfg *config.Config) EncoderOptions {
	opts := EncoderOptions{
		Path:     cfg.Output.Path,
		Width:    cfg.Style.Width,
		Height:   cfg.Style.Height,
		FPS:      cfg.Style.FPS,
		Duration: cfg.Timeline.Duration,
		Output:   cfg.Output,
		Audio:    cfg.Audio,
	}
	if cfg.Audio.MusicPath != "" {
		n, err := probeLength(cfg.Audio.MusicPath)
		if err != nil {
			slog.Warn("could not read music length, fading out at the video end",
				"music", cfg.Audio.MusicPath, "error", err)
		}
		opts.MusicLength = n
	}
	return opts
}

func probeLength(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbeLength(out)
}

// parseProbeLength reads format.duration from ffprobe's JSON output.
func parseProbeLength(probe string) (float64, error) {
	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probe), &info); err != nil {
		return 0, fmt.Errorf("decode probe output: %w", err)
	}
	if info.Format.Duration == "" {
		return 0, errors.New("probe output has no duration")
	}
	d, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", info.Format.Duration, err)
	}
	return d, nil
}

// fadeOutStart places the fade at the end of the trimmed music, which is
// shorter than the video when the track runs out first.
func fadeOutStart(duration, musicLength, fadeOut float64) float64 {
	end := duration
	if musicLength > 0 {
		end = math.Min(end, musicLength)
	}
	return math.Max(end-fadeOut, 0)
}

// FFmpegSink streams raw rgb24 frames into an ffmpeg process that encodes
// H.264 and mixes the audio.
type FFmpegSink struct {
	path   string
	pipe   *io.PipeWriter
	done   chan error
	stderr bytes.Buffer
	frames int
}

func NewFFmpegSink(opts EncoderOptions) (*FFmpegSink, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	pr, pw := io.Pipe()
	s := &FFmpegSink{path: opts.Path, pipe: pw, done: make(chan error, 1)}

	cmd := buildCommand(opts).WithInput(pr).WithErrorOutput(&s.stderr)
	slog.Debug("starting ffmpeg", "args", strings.Join(cmd.GetArgs(), " "))
	go func() {
		err := cmd.Run()
		// Unblock a writer stuck on a dead process.
		pr.CloseWithError(io.ErrClosedPipe)
		s.done <- err
	}()
	return s, nil
}

func (s *FFmpegSink) WriteFrame(index int, img *image.RGBA) error {
	if _, err := s.pipe.Write(compositor.Pack(img, compositor.RGB24)); err != nil {
		return fmt.Errorf("write frame %d to ffmpeg: %w", index, err)
	}
	s.frames++
	return nil
}

// Close ends the input stream and waits for ffmpeg to finish the file.
func (s *FFmpegSink) Close() error {
	s.pipe.Close()
	if err := <-s.done; err != nil {
		return fmt.Errorf("ffmpeg failed after %d frames: %w: %s", s.frames, err, lastLines(s.stderr.String(), 5))
	}
	slog.Debug("ffmpeg finished", "frames", s.frames)
	return nil
}

// Abort stops feeding ffmpeg, waits for it to exit and deletes the
// truncated output file.
func (s *FFmpegSink) Abort() error {
	s.pipe.CloseWithError(errAborted)
	<-s.done
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	slog.Debug("discarded partial video", "path", s.path, "frames", s.frames)
	return nil
}

var errAborted = errors.New("render aborted")

// buildCommand lays out: pipe:0 raw video, then music and voiceover inputs.
func buildCommand(opts EncoderOptions) *ffmpeg.Stream {
	duration := fmt.Sprintf("%.3f", opts.Duration)
	video := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   compositor.RGB24.String(),
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	})

	out := ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"crf":     opts.Output.CRF,
		"preset":  opts.Output.Preset,
		"r":       opts.FPS,
		"t":       duration,
	}
	if opts.Output.Bitrate != "" {
		out["b:v"] = opts.Output.Bitrate
	}
	if opts.Output.Faststart {
		out["movflags"] = "+faststart"
	}

	streams := []*ffmpeg.Stream{video}
	if audio := audioStream(opts.Audio, opts.Duration, opts.MusicLength); audio != nil {
		streams = append(streams, audio)
		out["c:a"] = "aac"
	}
	return ffmpeg.Output(streams, opts.Path, out).OverWriteOutput()
}

// audioStream mirrors the mix rules: music gets volume and fades, the
// voiceover only volume, and music is ducked under a voiceover.
func audioStream(a config.AudioConfig, duration, musicLength float64) *ffmpeg.Stream {
	trim := ffmpeg.KwArgs{"t": fmt.Sprintf("%.3f", duration)}

	var music, voice *ffmpeg.Stream
	if a.MusicPath != "" {
		music = ffmpeg.Input(a.MusicPath, trim).Audio().
			Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", a.MusicVolume)})
		if a.FadeIn > 0 {
			music = music.Filter("afade", nil, ffmpeg.KwArgs{"t": "in", "st": 0, "d": a.FadeIn})
		}
		if a.FadeOut > 0 {
			start := fadeOutStart(duration, musicLength, a.FadeOut)
			music = music.Filter("afade", nil, ffmpeg.KwArgs{"t": "out", "st": fmt.Sprintf("%.3f", start), "d": a.FadeOut})
		}
	}
	if a.VoiceoverPath != "" {
		voice = ffmpeg.Input(a.VoiceoverPath, trim).Audio().
			Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", a.VoiceoverVolume)})
	}

	switch {
	case music != nil && voice != nil:
		ducked := music.Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", a.DuckingRatio)})
		return ffmpeg.Filter([]*ffmpeg.Stream{ducked, voice}, "amix", nil,
			ffmpeg.KwArgs{"inputs": 2, "duration": "longest", "normalize": 0})
	case music != nil:
		return music
	default:
		return voice
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
