// Package app wires the store, detector, audio, session and HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/edorun/internal/audio"
	"github.com/ayusman/edorun/internal/capture"
	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/server"
	"github.com/ayusman/edorun/internal/session"
	"github.com/ayusman/edorun/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	DBPath     string
	StaticDir  string
	CameraID   int
	Images     []string // still image files added to the image library
	StartImage string   // library image to start on; empty starts the camera
	AudioPath  string   // WAV file played while the stance is held; empty disables audio
	PlayerPath string   // audio player binary; empty looks up ffplay

	// MotionThresh is the percentage of changed pixels that triggers inference
	// on camera frames. Zero or less runs inference on every frame.
	MotionThresh float64

	Logger   *slog.Logger
	Detector detector.Detector // nil tries MediaPipe, then falls back to the mock
	Player   audio.Player      // nil builds a process player from AudioPath
}

// App is the main application that owns every long-lived component.
type App struct {
	config  Config
	logger  *slog.Logger
	store   *store.Store
	session *session.Session
	server  *server.Server
}

// New opens the store and builds the session and server. Audio and detector
// failures degrade to a silent or mock setup instead of failing.
func New(config Config) (*App, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger

	st, err := store.New(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	images, err := registerImages(st, config.Images)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("register images: %w", err)
	}

	tuning := loadTuning(st, logger)

	det := config.Detector
	if det == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			det = mp
			logger.Info("using MediaPipe pose detection")
		} else {
			logger.Warn("MediaPipe not available, using mock detector", "error", err)
			det = detector.NewMockDetector()
		}
	}

	var motion *capture.MotionDetector
	if config.MotionThresh > 0 {
		motion = capture.NewMotionDetector(config.MotionThresh)
	}

	sess := session.New(session.Config{
		Detector: det,
		Audio:    newAudio(config, tuning, logger),
		Motion:   motion,
		Tuning:   tuning,
		Images:   images,
		Logger:   logger,
	})

	a := &App{
		config:  config,
		logger:  logger,
		store:   st,
		session: sess,
	}
	a.server = server.New(server.Config{
		StaticDir: config.StaticDir,
		Store:     st,
		Session:   sess,
		Logger:    logger,
	})
	return a, nil
}

// newAudio builds the audio controller, or returns nil when audio is unavailable.
func newAudio(config Config, tuning session.Tuning, logger *slog.Logger) *audio.Controller {
	player := config.Player
	if player == nil {
		if config.AudioPath == "" {
			return nil
		}
		track, err := audio.LoadWAV(config.AudioPath)
		if err != nil {
			logger.Warn("audio disabled", "path", config.AudioPath, "error", err)
			return nil
		}
		pp, err := audio.NewProcessPlayer(track, audio.ResolvePlayerPath(config.PlayerPath))
		if err != nil {
			logger.Warn("audio disabled", "error", err)
			return nil
		}
		player = pp
	}

	return audio.NewController(player, audio.ControllerConfig{
		Volume:       tuning.Volume,
		FadeDuration: tuning.FadeDuration(),
	}, logger)
}

// loadTuning returns the persisted tuning, or the defaults.
func loadTuning(st *store.Store, logger *slog.Logger) session.Tuning {
	tuning := session.DefaultTuning()
	if err := st.Settings().GetJSON(store.KeyTuning, &tuning); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("ignoring stored settings", "error", err)
		}
		return session.DefaultTuning()
	}
	if err := tuning.Validate(); err != nil {
		logger.Warn("ignoring stored settings", "error", err)
		return session.DefaultTuning()
	}
	return tuning
}

// registerImages adds paths to the image library, named by file name without
// extension, and returns the whole library.
func registerImages(st *store.Store, paths []string) (map[string]string, error) {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, err
		}
		img := &store.Image{
			ID:   uuid.NewString(),
			Name: ImageName(abs),
			Path: abs,
		}
		if err := st.Images().Upsert(img); err != nil {
			return nil, err
		}
	}
	return st.Images().Paths()
}

// ImageName returns the library name for an image file.
func ImageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Start restores the detection toggle and starts the session on the configured source.
func (a *App) Start(ctx context.Context) error {
	enabled, err := a.store.Settings().GetBool(store.KeyEnabled, true)
	if err != nil {
		a.logger.Warn("ignoring stored detection toggle", "error", err)
	}
	a.session.SetEnabled(enabled)

	spec := session.SourceSpec{Kind: capture.KindCamera, Camera: a.config.CameraID}
	if a.config.StartImage != "" {
		spec = session.SourceSpec{Kind: capture.KindImage, Image: a.config.StartImage}
	}
	return a.session.Start(ctx, spec)
}

// ListenAndServe serves HTTP on addr until Shutdown.
func (a *App) ListenAndServe(addr string) error {
	return a.server.ListenAndServe(addr)
}

// Shutdown stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close persists the detection toggle and releases every component.
func (a *App) Close() error {
	var errs []error
	if err := a.store.Settings().SetJSON(store.KeyEnabled, a.session.IsEnabled()); err != nil {
		errs = append(errs, fmt.Errorf("save detection toggle: %w", err))
	}
	if err := a.session.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// Session returns the pose session.
func (a *App) Session() *session.Session {
	return a.session
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Store returns the settings store.
func (a *App) Store() *store.Store {
	return a.store
}
