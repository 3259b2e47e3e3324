package icon

import (
	"log"
	"os"
	"runtime"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// FontSource yields label faces at any pixel size. A FontSource without a
// parsed font falls back to the built-in 7x13 bitmap face, so rendering never
// fails for lack of fonts.
type FontSource struct {
	Name string
	font *opentype.Font
}

// BuiltinFont is the last-resort bitmap face.
func BuiltinFont() *FontSource {
	return &FontSource{Name: "basicfont 7x13"}
}

// GoBold is the embedded Go Bold face, used when no system font loads.
func GoBold() *FontSource {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return BuiltinFont()
	}
	return &FontSource{Name: "Go Bold", font: f}
}

// Face returns a new face at px pixels. Faces are not safe for concurrent use,
// so callers create one per render.
func (s *FontSource) Face(px float64) font.Face {
	if s == nil || s.font == nil || px <= 0 {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Scalable reports whether Face honours the requested size.
func (s *FontSource) Scalable() bool { return s != nil && s.font != nil }

// PlatformFontPaths lists bold UI fonts commonly present on goos.
func PlatformFontPaths(goos string) []string {
	switch goos {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{
			windir + `\Fonts\segoeuib.ttf`,
			windir + `\Fonts\seguisb.ttf`,
			windir + `\Fonts\arialbd.ttf`,
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
			"/Library/Fonts/Arial Bold.ttf",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
		}
	}
}

// ResolveFonts tries each preferred path, then the platform list, then Go Bold,
// then the built-in bitmap face.
func ResolveFonts(preferred []string, logger *log.Logger) *FontSource {
	candidates := append(append([]string{}, preferred...), PlatformFontPaths(runtime.GOOS)...)
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			if logger != nil {
				logger.Printf("[ICON] font %s unusable: %v", path, err)
			}
			continue
		}
		if logger != nil {
			logger.Printf("[ICON] using font %s", path)
		}
		return &FontSource{Name: path, font: f}
	}
	src := GoBold()
	if logger != nil {
		logger.Printf("[ICON] no system font found, using %s", src.Name)
	}
	return src
}
