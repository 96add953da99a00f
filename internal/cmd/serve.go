package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/stripeterrain/assets"
	"github.com/MeKo-Tech/stripeterrain/internal/panel"
	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/render"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
	"github.com/MeKo-Tech/stripeterrain/internal/terrain"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scene and serve the live parameter panel",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("fps", scene.DefaultFPS, "Scene frame rate")
	serveCmd.Flags().String("web-dir", "", "Serve the panel page from this directory instead of the embedded copy")
	serveCmd.Flags().String("contour-color", "#ffffff", "Line color of the contour preview")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "Grace period for open requests on shutdown")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.fps", "fps")
	mustBind("serve.web_dir", "web-dir")
	mustBind("serve.contour_color", "contour-color")
	mustBind("serve.shutdown_timeout", "shutdown-timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	fps := viper.GetInt("serve.fps")
	webDir := viper.GetString("serve.web_dir")
	shutdownTimeout := viper.GetDuration("serve.shutdown_timeout")
	seed := viper.GetInt64("seed")

	ink, err := params.ParseHex(viper.GetString("serve.contour_color"))
	if err != nil {
		return fmt.Errorf("invalid contour color: %w", err)
	}

	opts, err := loadSceneOptions(viper.GetViper())
	if err != nil {
		return err
	}
	rec := render.NewRecorder()
	opts.Pipeline = rec
	opts.Camera = rec
	opts.Logger = logger

	sc, err := scene.New(opts)
	if err != nil {
		return fmt.Errorf("failed to build scene: %w", err)
	}
	loop := scene.NewLoop(sc, fps, logger)

	var web fs.FS
	if webDir != "" {
		web = os.DirFS(webDir)
	} else if web, err = fs.Sub(assets.WebFS, "web"); err != nil {
		return fmt.Errorf("failed to open embedded panel: %w", err)
	}

	panelSrv, err := panel.NewServer(panel.Config{
		Loop:         loop,
		Recorder:     rec,
		Field:        terrain.NewField(seed),
		Web:          web,
		ContourColor: ink,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: panelSrv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	logger.Info("panel server listening",
		"addr", addr,
		"fps", fps,
		"seed", seed,
		"params", len(sc.Sync.Names()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down panel server")
		panelSrv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
