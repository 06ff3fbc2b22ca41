package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/tray"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Run gesture detection from the system tray",
	Long: `Tray starts detection, the settings web UI and a tray menu for
toggling detection, reloading the settings file and opening the UI.`,
	RunE: runTray,
}

func init() {
	rootCmd.AddCommand(trayCmd)
	trayCmd.Flags().StringVar(&addr, "addr", "", "Listen address (env "+envAddr+", default "+defaultAddr+")")
}

func runTray(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rt.app.Start(); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}
	defer rt.app.Stop()

	srv := newServer(rt)
	defer srv.Close()

	a := listenAddr()
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(ctx, a)
	}()

	t := tray.New(rt.app.IsEnabled())
	t.OnToggle(rt.app.SetEnabled)
	t.OnReload(func() {
		changed, err := rt.app.ReloadConfig()
		if err != nil {
			rt.logger.Warn("reload failed", zap.Error(err))
			return
		}
		rt.logger.Info("settings reloaded", zap.Bool("changed", changed))
	})
	t.OnSettings(func() {
		if err := openBrowser(settingsURL(a)); err != nil {
			rt.logger.Warn("failed to open browser", zap.Error(err))
		}
	})
	t.OnQuit(cancel)

	unsub := rt.app.SubscribeStatus(t.SetStatus)
	defer unsub()
	t.SetStatus(rt.app.Status())

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
	cancel()

	if err := <-srvErr; err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// settingsURL turns a listen address into a browsable URL.
func settingsURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		listen = "127.0.0.1" + listen
	}
	return "http://" + listen + "/"
}

func openBrowser(url string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		name = "xdg-open"
	}
	return exec.Command(name, url).Start()
}
