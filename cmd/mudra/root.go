package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Environment fallbacks for flags that are not set explicitly.
const (
	envConfig = "MUDRA_CONFIG"
	envDB     = "MUDRA_DB"
	envAddr   = "MUDRA_ADDR"
)

const (
	defaultAddr    = "127.0.0.1:8080"
	defaultBackend = "robot"
)

var (
	configPath string
	dbPath     string
	pluginDir  string
	backend    string
	cameraID   int
	fps        int
	debug      bool
	noEmit     bool
)

var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "Control the keyboard and mouse with hand gestures",
	Long: `mudra watches a camera for hand gestures (pinch, fist, two fingers
spread) on either hand and turns them into key and mouse button input.
Each gesture can hold an action while it is shown or repeat it at a fixed
rate. The mapping is read from a settings file and reloaded when it changes.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Settings file, JSON or YAML (env "+envConfig+", default ~/.mudra/settings.json)")
	flags.StringVar(&dbPath, "db", "", "SQLite database (env "+envDB+", default ~/.mudra/mudra.db)")
	flags.StringVar(&pluginDir, "plugin-dir", "", "Directory holding input backend plugins (default ~/.mudra/plugins)")
	flags.StringVar(&backend, "backend", defaultBackend, `Input backend: "robot" or the name of a plugin`)
	flags.IntVar(&cameraID, "camera", 0, "Camera device index")
	flags.IntVar(&fps, "fps", 0, "Capture rate while hands are in view (default 15)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&noEmit, "no-emit", false, "Detect gestures without sending any input")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if configPath == "" {
		configPath = envOr(envConfig, dataPath("settings.json"))
	}
	if dbPath == "" {
		dbPath = envOr(envDB, dataPath("mudra.db"))
	}
	if pluginDir == "" {
		pluginDir = dataPath("plugins")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// dataPath returns name inside ~/.mudra, or the working directory when the
// home directory is unknown.
func dataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".mudra", name)
}

func ensureDataDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
