package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	ico "github.com/sergeymakinen/go-ico"
)

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeICO returns img as a single-image ICO, the format the Windows tray needs.
func EncodeICO(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := ico.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode ico: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeForTray picks the encoding the tray host on goos accepts.
func EncodeForTray(img image.Image, goos string) ([]byte, error) {
	if goos == "windows" {
		return EncodeICO(img)
	}
	return EncodePNG(img)
}
