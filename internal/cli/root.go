// Package cli implements the mousebattery commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mousebattery/internal/config"
	"mousebattery/internal/logging"
)

// Version is set at build time with -ldflags "-X mousebattery/internal/cli.Version=...".
var Version = "dev"

var (
	dataDir string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "mousebattery",
	Short: "Show a wireless mouse battery level in the system tray",
	Long: `mousebattery polls a wireless mouse for its battery level and shows it
as a numbered battery icon in the system tray. Run without a command to start
the tray app.`,
	SilenceUsage: true,
	RunE:         runTray,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tray app (default)",
	Args:  cobra.NoArgs,
	RunE:  runTray,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for interval.txt, settings.yaml and debug.log (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every poll cycle and mirror the log to stderr")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(intervalCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is what every command needs from the data directory.
type env struct {
	paths    config.Paths
	settings config.Settings
	logger   *logging.Logger
}

// loadEnv resolves the data dir and settings. The tray app logs to the
// rotating file; one-shot commands log to stderr only with --debug.
func loadEnv(toFile bool) *env {
	e := &env{paths: config.NewPaths(dataDir)}
	settings, settingsErr := config.LoadSettings(e.paths.SettingsFile())
	if debug {
		settings.Log.Debug = true
	}
	e.settings = settings

	if toFile {
		l, err := logging.Open(e.paths.LogFile(), settings.Log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mousebattery: %v\n", err)
			l = logging.Stderr(settings.Log.Debug)
		}
		e.logger = l
	} else {
		e.logger = logging.Stderr(settings.Log.Debug)
	}
	if settingsErr != nil {
		e.logger.Printf("[CONFIG] %v, using defaults", settingsErr)
	}
	return e
}
