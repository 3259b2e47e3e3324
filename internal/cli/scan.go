package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mousebattery/internal/device"
	"mousebattery/internal/device/hiddev"
)

var scanAll bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List HID interfaces and mark the ones that would be probed",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanAll, "all", "a", false, "include interfaces that are never probed")
}

func runScan(cmd *cobra.Command, args []string) error {
	e := loadEnv(false)
	matcher := device.NewMatcher(e.settings.VendorIDs)
	finder := hiddev.NewFinder(matcher, e.logger.Logger)
	defer finder.Close()

	all, err := finder.Enumerate()
	if err != nil {
		return err
	}
	probe := make(map[string]int)
	for i, c := range matcher.Candidates(all) {
		probe[c.Path] = i + 1
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tVID\tPID\tPAGE\tUSAGE\tIF\tMODEL\tPATH")
	shown := 0
	for _, info := range all {
		order, ok := probe[info.Path]
		if !ok && !scanAll {
			continue
		}
		mark := "-"
		if ok {
			mark = fmt.Sprint(order)
		}
		fmt.Fprintf(tw, "%s\t%04x\t%04x\t%04x\t%02x\t%d\t%s\t%s\n",
			mark, info.VendorID, info.ProductID, info.UsagePage, info.Usage, info.InterfaceNbr,
			device.ModelName(info), info.Path)
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no supported interfaces among %d HID interfaces (use --all to list them)\n", len(all))
	}
	return nil
}
