package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/edorun/internal/app"
	"github.com/ayusman/edorun/internal/hold"
	"github.com/ayusman/edorun/internal/tray"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var images stringList
	addr := flag.String("addr", "localhost:8080", "HTTP listen address")
	camera := flag.Int("camera", 0, "camera device index")
	flag.Var(&images, "image", "still image file to add to the image library (repeatable)")
	startImage := flag.String("start-image", "", "library image to start on instead of the camera")
	audioPath := flag.String("audio", "", "WAV file played while the stance is held")
	playerPath := flag.String("player", "", "audio player binary (default: ffplay from PATH)")
	dbPath := flag.String("db", "", "database path (default: ~/.edorun/edorun.db)")
	webDir := flag.String("web", "", "static web directory (default: search common locations)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "log as JSON")
	useTray := flag.Bool("tray", false, "show a system tray menu")
	motion := flag.Float64("motion", 0, "percentage of changed pixels that triggers inference (0 runs every frame)")
	flag.Parse()

	logger, err := newLogger(*logLevel, *logJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if *dbPath == "" {
		*dbPath, err = defaultDBPath()
		if err != nil {
			logger.Error("failed to prepare data directory", "error", err)
			os.Exit(1)
		}
	}
	if *webDir == "" {
		*webDir = findWebDir()
	}
	if *webDir != "" {
		logger.Info("serving static files", "dir", *webDir)
	}

	// A single -image also selects it as the starting source
	if *startImage == "" && len(images) == 1 {
		*startImage = app.ImageName(images[0])
	}

	a, err := app.New(app.Config{
		DBPath:       *dbPath,
		StaticDir:    *webDir,
		CameraID:     *camera,
		Images:       images,
		StartImage:   *startImage,
		AudioPath:    *audioPath,
		PlayerPath:   *playerPath,
		MotionThresh: *motion,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		a.Close()
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.ListenAndServe(*addr)
	}()

	if *useTray {
		go func() {
			<-ctx.Done()
			tray.New().Quit()
		}()
		runTray(ctx, stop, a, uiURL(*addr))
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// runTray blocks on the tray event loop. Quitting from the menu cancels ctx.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string) {
	t := tray.New()
	sess := a.Session()

	t.OnToggle(sess.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			slog.Warn("failed to open browser", "url", url, "error", err)
		}
	})
	t.OnQuit(stop)

	go t.Watch(ctx, func() (hold.Status, float64, bool) {
		snap := sess.Snapshot()
		return snap.Status, snap.Progress, snap.Enabled
	}, tray.DefaultPollInterval)

	t.Run()
}

func newLogger(level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dataDir := filepath.Join(homeDir, ".edorun")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "edorun.db"), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.edorun/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".edorun", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
