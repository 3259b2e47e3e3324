package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mousebattery/internal/battery"
	"mousebattery/internal/config"
	"mousebattery/internal/device"
	"mousebattery/internal/device/hiddev"
	"mousebattery/internal/icon"
	"mousebattery/internal/monitor"
	"mousebattery/internal/tray"
	"mousebattery/internal/watch"
)

// shutdownWait bounds how long quitting waits for the worker to release the
// device.
const shutdownWait = 2 * time.Second

func runTray(cmd *cobra.Command, args []string) error {
	e := loadEnv(true)
	defer e.logger.Close()
	lg := e.logger.Logger

	if err := e.paths.Ensure(); err != nil {
		lg.Printf("[CONFIG] create %s: %v", e.paths.Dir, err)
	}
	if _, err := os.Stat(e.paths.SettingsFile()); errors.Is(err, os.ErrNotExist) {
		if err := config.SaveSettings(e.paths.SettingsFile(), config.DefaultSettings()); err != nil {
			lg.Printf("[CONFIG] write default settings: %v", err)
		}
	}
	lg.Printf("[STARTUP] mousebattery %s (%s/%s), data dir %s", Version, runtime.GOOS, runtime.GOARCH, e.paths.Dir)

	renderer := icon.NewRenderer(icon.ResolveFonts(e.settings.Fonts, lg))
	renderer.ShowPercentage = !e.settings.HidePercentage

	finder := hiddev.NewFinder(device.NewMatcher(e.settings.VendorIDs), lg)
	finder.UseProfiles(device.NewProfileStore(e.paths.ProfileFile()))
	defer finder.Close()

	var ctrl *monitor.Controller
	host := tray.New(tray.DispatchFunc(func(a monitor.Action) error {
		return ctrl.Dispatch(a)
	}), lg)
	ctrl = monitor.New(monitor.Options{
		Finder:    finder,
		Store:     battery.NewStore(),
		Intervals: config.NewIntervalStore(e.paths.IntervalFile()),
		Renderer:  renderer,
		Presenter: host,
		Logger:    lg,
		Verbose:   e.settings.Log.Debug,
	})
	host.Update(monitor.InitialView(renderer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := watch.New(e.paths.Dir, []string{config.IntervalFileName}, func(string) {
		if err := ctrl.Dispatch(monitor.ReloadInterval{}); err != nil {
			lg.Printf("[WATCH] reload: %v", err)
		}
	}, lg)
	if err != nil {
		lg.Printf("[WATCH] live reload disabled: %v", err)
	} else {
		defer w.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			lg.Printf("[STARTUP] received %v, shutting down", sig)
			ctrl.Dispatch(monitor.Quit{})
			host.Quit()
		case <-ctx.Done():
		}
	}()

	var started atomic.Bool
	host.Run(func() {
		started.Store(true)
		go ctrl.Run(ctx)
	}, func() {
		ctrl.Dispatch(monitor.Quit{})
	})

	ctrl.Dispatch(monitor.Quit{})
	if started.Load() {
		select {
		case <-ctrl.Done():
		case <-time.After(shutdownWait):
			lg.Printf("[STARTUP] worker still %s after %v, exiting anyway", ctrl.Phase(), shutdownWait)
		}
	}
	lg.Printf("[STARTUP] exiting")
	return nil
}
