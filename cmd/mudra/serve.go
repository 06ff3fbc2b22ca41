package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/server"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run gesture detection with the settings web UI",
	Long: `Serve starts detection and an HTTP server for editing the gesture
mapping, watching the camera preview and reading recent events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (env "+envAddr+", default "+defaultAddr+")")
}

func listenAddr() string {
	if addr != "" {
		return addr
	}
	return envOr(envAddr, defaultAddr)
}

func newServer(rt *instance) *server.Server {
	webDir := findWebDir()
	if webDir != "" {
		rt.logger.Info("serving static files", zap.String("dir", webDir))
	}
	return server.New(server.Config{
		StaticDir:  webDir,
		Controller: rt.app,
		Frames:     rt.app,
		Store:      rt.store,
		Logger:     rt.logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.app.Start(); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}
	defer rt.app.Stop()

	srv := newServer(rt)
	defer srv.Close()

	a := listenAddr()
	rt.logger.Info("starting server", zap.String("addr", a))
	if err := srv.ListenAndServe(ctx, a); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
