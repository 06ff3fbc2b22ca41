package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run gesture detection without a UI",
	Long: `Run opens the camera and sends input for recognized gestures until
interrupted. Status changes are written to the log.`,
	RunE: runHeadless,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsub := rt.app.SubscribeStatus(func(status string) {
		rt.logger.Info("status", zap.String("status", status))
	})
	defer unsub()

	if err := rt.app.Start(); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}

	<-ctx.Done()
	rt.logger.Info("shutting down")
	rt.app.Stop()

	stats := rt.app.Stats()
	rt.logger.Info("session finished",
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("intents", stats.Intents),
		zap.Uint64("emit_failures", stats.EmitFailures),
	)
	return nil
}
