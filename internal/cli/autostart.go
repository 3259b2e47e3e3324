package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mousebattery/internal/autostart"
	"mousebattery/internal/config"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start the tray app when you log in",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra []string
		if dataDir != "" {
			extra = append(extra, "--data-dir", dataDir)
		}
		e, err := autostart.Current(config.AppDirName, extra...)
		if err != nil {
			return err
		}
		if err := autostart.Enable(e); err != nil {
			return fmt.Errorf("failed to enable autostart: %w", err)
		}
		path, _ := autostart.Path(config.AppDirName)
		fmt.Fprintf(cmd.OutOrStdout(), "autostart enabled (%s)\n", path)
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.Disable(config.AppDirName); err != nil {
			return fmt.Errorf("failed to disable autostart: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the login item is installed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if autostart.Enabled(config.AppDirName) {
			fmt.Fprintln(cmd.OutOrStdout(), "enabled")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "disabled")
		}
	},
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
}
