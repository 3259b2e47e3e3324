package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mousebattery/internal/config"
)

var intervalCmd = &cobra.Command{
	Use:   "interval [seconds]",
	Short: "Show or set the poll interval",
	Long: `Without an argument, print the persisted poll interval. With one, store it.
Only the values offered in the tray menu are accepted: 60, 300, 600, 1800, 3600.
A running tray app picks the change up immediately.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInterval,
}

func runInterval(cmd *cobra.Command, args []string) error {
	paths := config.NewPaths(dataDir)
	store := config.NewIntervalStore(paths.IntervalFile())

	if len(args) == 0 {
		d := store.Load()
		label := "custom"
		if config.IsIntervalChoice(d) {
			label = config.IntervalLabel(d)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", int(d/time.Second), label)
		return nil
	}

	secs, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", args[0], err)
	}
	d := time.Duration(secs) * time.Second
	if !config.IsIntervalChoice(d) {
		choices := make([]string, len(config.IntervalChoices))
		for i, c := range config.IntervalChoices {
			choices[i] = strconv.Itoa(int(c / time.Second))
		}
		return fmt.Errorf("interval must be one of %s seconds", strings.Join(choices, ", "))
	}
	if err := store.Save(d); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "interval set to %s\n", config.IntervalLabel(d))
	return nil
}
