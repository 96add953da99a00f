package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
	"github.com/MeKo-Tech/stripeterrain/internal/terrain"
	"github.com/MeKo-Tech/stripeterrain/internal/worker"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a CPU preview of the terrain",
	Long: `Sample the displaced plane on the CPU and write it as a PNG.

Modes:
  elevation  grayscale heightmap
  contours   stripe texture lines over the clear color, as the fragment shader shades them

With --frames N the output is a directory and N frames are rendered in
parallel, --frame-step seconds of uTime apart, as frame_0000.png onwards.`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringP("output", "o", "terrain.png", "Output PNG path")
	previewCmd.Flags().Int("size", 512, "Preview size in pixels (square)")
	previewCmd.Flags().String("mode", "contours", "Preview mode (elevation, contours)")
	previewCmd.Flags().Float64("time", 0, "uTime in seconds")
	previewCmd.Flags().String("ink", "#ffffff", "Contour line color")
	previewCmd.Flags().Int("frames", 0, "Render an animation of this many frames into the output directory")
	previewCmd.Flags().Float64("frame-step", 1.0/30, "uTime between animation frames in seconds")
	previewCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	previewCmd.Flags().Bool("progress", true, "Show progress bar while rendering frames")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"preview.output", "output"},
		{"preview.size", "size"},
		{"preview.mode", "mode"},
		{"preview.time", "time"},
		{"preview.ink", "ink"},
		{"preview.frames", "frames"},
		{"preview.frame_step", "frame-step"},
		{"preview.workers", "workers"},
		{"preview.progress", "progress"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, previewCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	out := viper.GetString("preview.output")
	size := viper.GetInt("preview.size")
	mode := viper.GetString("preview.mode")
	elapsed := viper.GetFloat64("preview.time")
	seed := viper.GetInt64("seed")

	ink, err := params.ParseHex(viper.GetString("preview.ink"))
	if err != nil {
		return fmt.Errorf("invalid ink: %w", err)
	}
	opts, err := loadSceneOptions(viper.GetViper())
	if err != nil {
		return err
	}

	field := terrain.NewField(seed)

	if frames := viper.GetInt("preview.frames"); frames > 0 {
		return runPreviewFrames(opts, field, mode, size, ink, out, frames, elapsed)
	}

	img, err := renderPreview(opts, field, mode, size, elapsed, ink)
	if err != nil {
		return err
	}
	if err := stripe.WritePNGFile(out, img); err != nil {
		return err
	}

	logger.Info("Preview written", "path", out, "mode", mode, "size", size, "seed", seed)
	return nil
}

func runPreviewFrames(opts scene.Options, field *terrain.Field, mode string, size int, ink color.NRGBA, dir string, frames int, start float64) error {
	step := viper.GetFloat64("preview.frame_step")
	workers := viper.GetInt("preview.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if _, err := renderPreview(opts, field, mode, 1, start, ink); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := worker.NewProgress(frames, "frames", viper.GetBool("preview.progress"))
	pool := worker.New(worker.Config{
		Workers:    workers,
		Renderer:   &frameRenderer{opts: opts, field: field, mode: mode, size: size, ink: ink, dir: dir},
		OnProgress: progress.Update,
	})

	logger.Info("Rendering preview frames", "dir", dir, "frames", frames, "frame_step", step, "workers", workers)
	results := pool.Run(ctx, worker.Frames(frames, start, step))
	progress.Done()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("Frame failed", "frame", r.Frame.Index, "error", r.Err)
		}
	}
	logger.Info(progress.Summary())
	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed", failed, frames)
	}
	return nil
}

// frameRenderer writes one preview PNG per animation frame.
type frameRenderer struct {
	opts  scene.Options
	field *terrain.Field
	mode  string
	size  int
	ink   color.NRGBA
	dir   string
}

func (r *frameRenderer) Render(ctx context.Context, f worker.Frame) (string, error) {
	img, err := renderPreview(r.opts, r.field, r.mode, r.size, f.Time, r.ink)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("frame_%04d.png", f.Index))
	if err := stripe.WritePNGFile(path, img); err != nil {
		return "", err
	}
	return path, nil
}

func renderPreview(opts scene.Options, field *terrain.Field, mode string, size int, elapsed float64, ink color.NRGBA) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	p := terrain.Params{
		Elevation:        opts.Uniforms.Elevation,
		TextureFrequency: opts.Uniforms.TextureFrequency,
		Time:             elapsed,
	}

	switch mode {
	case "elevation":
		return field.Heightmap(size, size, p), nil
	case "contours":
		tex := stripe.NewRaster(opts.Spec.Width, opts.Spec.Height)
		stripe.Generate(opts.Spec, tex)

		lines := field.Contours(size, size, p, tex, ink)
		dst := image.NewNRGBA(lines.Bounds())
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.ClearColor), image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), lines, image.Point{}, draw.Over)
		return dst, nil
	default:
		return nil, fmt.Errorf("unsupported preview mode: %s", mode)
	}
}
