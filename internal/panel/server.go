// Package panel serves the live parameter panel: a websocket for edits and
// state pushes, plus a few plain HTTP endpoints for scripting and previews.
package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/render"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
	"github.com/MeKo-Tech/stripeterrain/internal/terrain"
)

const (
	defaultPreviewSize = 256
	maxPreviewSize     = 1024
	maxTextureScale    = 16
	writeTimeout       = 5 * time.Second
	requestTimeout     = 2 * time.Second
)

// ErrUnknownMessage is reported for inbound messages with an unrecognized type.
var ErrUnknownMessage = errors.New("unknown message type")

// Config wires a Server to the running scene.
type Config struct {
	Loop *scene.Loop
	// Recorder is optional; without it rotate messages are rejected and state
	// messages carry no pipeline snapshot.
	Recorder *render.Recorder
	// Field is optional; without it the preview endpoints return 404.
	Field *terrain.Field
	// Web holds the static panel page served at /. Optional.
	Web fs.FS
	// ContourColor is the ink used by /preview/contours.png.
	ContourColor color.NRGBA
}

// Server is the panel's HTTP surface. Every scene read or write is submitted
// to the scene loop.
type Server struct {
	cfg      Config
	hub      *hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a panel server for cfg.Loop.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Loop == nil {
		return nil, fmt.Errorf("panel needs a scene loop")
	}
	if cfg.ContourColor == (color.NRGBA{}) {
		cfg.ContourColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return &Server{
		cfg:    cfg,
		hub:    newHub(),
		logger: logger,
	}, nil
}

// Handler returns the panel routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /api/params", s.serveParams)
	mux.HandleFunc("POST /api/params/{name}", s.serveSetParam)
	mux.HandleFunc("GET /api/state", s.serveState)
	mux.HandleFunc("GET /texture.png", s.serveTexture)
	mux.HandleFunc("GET /preview/elevation.png", s.servePreview(false))
	mux.HandleFunc("GET /preview/contours.png", s.servePreview(true))
	if s.cfg.Web != nil {
		mux.Handle("GET /", http.FileServerFS(s.cfg.Web))
	}
	return mux
}

// Clients returns the number of connected panels.
func (s *Server) Clients() int { return s.hub.len() }

// Close disconnects every panel.
func (s *Server) Close() { s.hub.closeAll() }

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log().Warn("websocket upgrade failed", "error", err)
		return
	}

	c := s.hub.add(conn)
	go c.writePump()
	s.log().Info("panel connected", "remote", r.RemoteAddr, "clients", s.hub.len())

	defer func() {
		s.hub.remove(c)
		s.log().Info("panel disconnected", "remote", r.RemoteAddr, "clients", s.hub.len())
	}()

	ctx := r.Context()

	desc, err := s.descriptors(ctx)
	if err != nil {
		s.log().Error("failed to read descriptors", "error", err)
		return
	}
	if !s.hub.sendTo(c, desc) {
		return
	}
	state, err := s.state(ctx)
	if err != nil {
		s.log().Error("failed to read state", "error", err)
		return
	}
	if !s.hub.sendTo(c, state) {
		return
	}

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log().Debug("panel read failed", "error", err)
			}
			return
		}
		if err := s.handle(ctx, in); err != nil {
			s.log().Debug("panel message rejected", "type", in.Type, "name", in.Name, "error", err)
			if !s.hub.sendTo(c, ErrorMessage{Type: TypeError, Error: err.Error()}) {
				return
			}
			continue
		}
		s.broadcastState(ctx)
	}
}

// handle applies one inbound message to the scene.
func (s *Server) handle(ctx context.Context, in Inbound) error {
	switch in.Type {
	case TypeSet:
		return s.set(ctx, in.Name, in.Value)
	case TypeResize:
		vp := params.Viewport{Width: in.Width, Height: in.Height, DevicePixelRatio: in.DevicePixelRatio}
		return s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
			_, err := c.Sync.OnViewportResize(vp)
			return err
		})
	case TypeRotate:
		if s.cfg.Recorder == nil {
			return fmt.Errorf("rotate: no camera attached")
		}
		return s.cfg.Loop.Do(ctx, func(*scene.Context) error {
			s.cfg.Recorder.Rotate(in.Azimuth, in.Polar)
			return nil
		})
	default:
		return fmt.Errorf("%w %q", ErrUnknownMessage, in.Type)
	}
}

func (s *Server) set(ctx context.Context, name string, raw json.RawMessage) error {
	return s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
		kind, err := c.Sync.Kind(name)
		if err != nil {
			return err
		}
		v, err := params.DecodeValue(kind, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		_, err = c.Sync.Apply(name, v)
		return err
	})
}

func (s *Server) descriptors(ctx context.Context) (DescriptorsMessage, error) {
	msg := DescriptorsMessage{Type: TypeDescriptors}
	err := s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
		msg.Params = c.Sync.Descriptors()
		return nil
	})
	return msg, err
}

func (s *Server) state(ctx context.Context) (StateMessage, error) {
	msg := StateMessage{Type: TypeState}
	err := s.cfg.Loop.With(ctx, func(c *scene.Context, frame scene.FrameState) error {
		msg.Values = c.Sync.Values()
		msg.Spec = c.Spec
		if l, ok := c.Sync.Layout(); ok {
			msg.Layout = &l
		}
		msg.Frame = frame
		return nil
	})
	if err != nil {
		return msg, err
	}
	if s.cfg.Recorder != nil {
		snap := s.cfg.Recorder.Snapshot()
		msg.Pipeline = &snap
	}
	return msg, nil
}

func (s *Server) broadcastState(ctx context.Context) {
	state, err := s.state(ctx)
	if err != nil {
		s.log().Warn("failed to read state for broadcast", "error", err)
		return
	}
	s.hub.broadcast(state)
}

func (s *Server) serveParams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var body struct {
		Params []params.Descriptor `json:"params"`
		Values map[string]any      `json:"values"`
	}
	err := s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
		body.Params = c.Sync.Descriptors()
		body.Values = c.Sync.Values()
		return nil
	})
	if err != nil {
		s.sceneError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) serveSetParam(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	raw, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	name := r.PathValue("name")
	if err := s.set(ctx, name, raw); err != nil {
		switch {
		case errors.Is(err, params.ErrUnknownBinding):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, params.ErrKindMismatch):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			s.sceneError(w, err)
		}
		return
	}
	s.broadcastState(ctx)
	s.serveState(w, r)
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, err := s.state(ctx)
	if err != nil {
		s.sceneError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) serveTexture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	scale, err := intQuery(r, "scale", 1, 1, maxTextureScale)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Copy the raster on the loop so encoding runs outside it.
	var img image.Image
	err = s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
		img = stripe.Preview(c.Raster, scale)
		return nil
	})
	if err != nil {
		s.sceneError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.log().Error("failed to encode texture", "error", err)
		http.Error(w, "failed to encode texture", http.StatusInternalServerError)
		return
	}
	s.writePNG(w, buf.Bytes())
}

func (s *Server) servePreview(contours bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Field == nil {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		size, err := intQuery(r, "size", defaultPreviewSize, 1, maxPreviewSize)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var (
			p   terrain.Params
			tex *stripe.Raster
		)
		err = s.cfg.Loop.Do(ctx, func(c *scene.Context) error {
			p = terrain.Params{
				Elevation:        c.Uniforms.Elevation,
				TextureFrequency: c.Uniforms.TextureFrequency,
				Time:             c.Uniforms.Time,
			}
			if contours {
				tex = stripe.NewRaster(c.Spec.Width, c.Spec.Height)
				stripe.Generate(c.Spec, tex)
			}
			return nil
		})
		if err != nil {
			s.sceneError(w, err)
			return
		}

		var buf bytes.Buffer
		if contours {
			err = png.Encode(&buf, s.cfg.Field.Contours(size, size, p, tex, s.cfg.ContourColor))
		} else {
			err = png.Encode(&buf, s.cfg.Field.Heightmap(size, size, p))
		}
		if err != nil {
			s.log().Error("failed to encode preview", "error", err)
			http.Error(w, "failed to encode preview", http.StatusInternalServerError)
			return
		}
		s.writePNG(w, buf.Bytes())
	}
}

func (s *Server) sceneError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scene.ErrLoopStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, "scene busy", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("failed to encode response", "error", err)
	}
}

func (s *Server) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		s.log().Error("failed to write response", "error", err)
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func intQuery(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be in [%d, %d]", key, lo, hi)
	}
	return n, nil
}
