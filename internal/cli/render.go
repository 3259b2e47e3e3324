package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mousebattery/internal/icon"
)

var (
	renderPercent  int
	renderCharging bool
	renderOutput   string
	renderSize     int
	renderNoLabel  bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the tray icon for a given level to a PNG or ICO file",
	Example: `  mousebattery render --percent 45 -o battery.png
  mousebattery render --percent 12 --charging -o low.ico`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVarP(&renderPercent, "percent", "p", 100, "battery level, clamped to 0..100")
	renderCmd.Flags().BoolVar(&renderCharging, "charging", false, "draw the charging bolt")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "battery.png", "output file; .ico writes an icon, anything else PNG")
	renderCmd.Flags().IntVar(&renderSize, "size", icon.DefaultSize, "icon edge in pixels")
	renderCmd.Flags().BoolVar(&renderNoLabel, "no-label", false, "omit the percentage text")
}

func runRender(cmd *cobra.Command, args []string) error {
	e := loadEnv(false)
	r := icon.NewRenderer(icon.ResolveFonts(e.settings.Fonts, e.logger.Logger))
	r.Size = renderSize
	r.ShowPercentage = !renderNoLabel && !e.settings.HidePercentage

	img := r.Render(renderPercent, renderCharging)

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(renderOutput), ".ico") {
		data, err = icon.EncodeICO(img)
	} else {
		data, err = icon.EncodePNG(img)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(renderOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", renderOutput, err)
	}
	lay := r.Layout(renderPercent, renderCharging)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %s, label %q, bolt %v)\n",
		renderOutput, lay.Size, lay.Size, lay.Tier, lay.Label, lay.Bolt)
	return nil
}
