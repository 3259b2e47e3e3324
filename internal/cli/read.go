package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mousebattery/internal/battery"
	"mousebattery/internal/device"
	"mousebattery/internal/device/hiddev"
)

var (
	readTimeout time.Duration
	readRaw     bool
	readForget  bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the battery once and print it",
	Args:  cobra.NoArgs,
	RunE:  runRead,
}

func init() {
	readCmd.Flags().DurationVar(&readTimeout, "timeout", 10*time.Second, "give up looking for a mouse after this long")
	readCmd.Flags().BoolVar(&readRaw, "raw", false, "also dump the raw feature report")
	readCmd.Flags().BoolVar(&readForget, "forget", false, "drop the cached interface and probe every candidate")
}

func runRead(cmd *cobra.Command, args []string) error {
	e := loadEnv(false)
	finder := hiddev.NewFinder(device.NewMatcher(e.settings.VendorIDs), e.logger.Logger)
	profiles := device.NewProfileStore(e.paths.ProfileFile())
	if readForget {
		if err := profiles.Forget(); err != nil {
			return fmt.Errorf("failed to clear cached interface: %w", err)
		}
	}
	finder.UseProfiles(profiles)
	defer finder.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), readTimeout)
	defer cancel()

	d, err := finder.FirstDevice(ctx)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			return errors.New("no supported mouse found (try `mousebattery scan --all`)")
		}
		return err
	}
	defer d.Close()

	r, err := d.Battery()
	if readRaw {
		dumpRaw(cmd.OutOrStdout(), d)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", d.Name(), err)
	}
	if !r.HasLevel {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: N/A\n", d.Name())
		return nil
	}
	status := "Discharging"
	if r.Charging {
		status = "Charging"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%% (%s)\n", d.Name(), battery.Clamp(r.Level), status)
	return nil
}

func dumpRaw(w io.Writer, d device.Device) {
	hd, ok := d.(*hiddev.Device)
	if !ok {
		return
	}
	raw := hd.LastReport()
	if raw == nil {
		fmt.Fprintln(w, "no report captured")
		return
	}
	info := hd.Info()
	fmt.Fprintf(w, "%s rid=0x%02x len=%d\n%s\nraw=%s\n",
		info.Path, hd.ReportID(), len(raw), device.HexDump(raw), device.HexString(raw))
}
