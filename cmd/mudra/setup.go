package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/action/robot"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// instance bundles what every long-running command needs.
type instance struct {
	app    *app.App
	store  *store.Store
	logger *zap.Logger
}

func (r *instance) close() {
	if err := r.app.Close(); err != nil {
		r.logger.Warn("failed to close app", zap.Error(err))
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = r.logger.Sync()
}

func setup() (*instance, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := ensureDataDir(dbPath); err != nil {
		return nil, err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	snap := app.InitialSnapshot(configPath, st, logger)
	for _, w := range snap.Warnings {
		logger.Warn("settings", zap.String("warning", w))
	}

	be, err := newBackend(logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := app.New(app.Config{
		FPS:          fps,
		Holder:       config.NewHolder(snap),
		Store:        st,
		Camera:       capture.NewCamera(capture.Options{DeviceID: cameraID}, logger),
		Emitter:      action.NewEmitter(be, logger),
		SettingsPath: configPath,
		Logger:       logger,
	})

	logger.Info("mudra ready",
		zap.String("config", configPath),
		zap.String("db", dbPath),
		zap.String("backend", backendName()),
	)
	return &instance{app: a, store: st, logger: logger}, nil
}

func backendName() string {
	if noEmit {
		return "none"
	}
	return backend
}

// newBackend selects the input backend named by --backend.
func newBackend(logger *zap.Logger) (action.Backend, error) {
	if noEmit {
		return action.NopBackend{}, nil
	}
	if backend == "" || backend == defaultBackend {
		return robot.New(), nil
	}

	mgr := plugin.NewManager(pluginDir, logger)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	p, err := mgr.Get(backend)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", backend, err)
	}
	be, err := plugin.NewBackend(p, plugin.NewExecutor(plugin.DefaultTimeout))
	if err != nil {
		return nil, err
	}
	logger.Info("using plugin backend", zap.String("plugin", be.Name()), zap.String("path", p.Path))
	return be, nil
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and ~/.mudra/web, and returns
// the first existing directory or an empty string if none is found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home := dataPath("web")
	if info, err := os.Stat(home); err == nil && info.IsDir() {
		return home
	}
	return ""
}
