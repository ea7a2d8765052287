package theme

import (
	"fmt"
	"io"

	"github.com/mkpages/mkpages/internal/config"
)

// WritePaletteCSS emits the custom-property stylesheet that applies the
// configured primary and accent colors. Both bundled themes style against
// these variables, so palette handling lives here rather than per theme.
func WritePaletteCSS(w io.Writer, palette config.PaletteConfig) error {
	primary := paletteColor(palette.Primary)
	accent := paletteColor(palette.Accent)

	_, err := fmt.Fprintf(w, `:root {
  --mk-primary: %s;
  --mk-primary-dark: %s;
  --mk-accent: %s;
  --mk-accent-dark: %s;
}
`, primary.Main, primary.Dark, accent.Main, accent.Dark)
	return err
}

func paletteColor(name string) config.PaletteColor {
	if c, ok := config.PaletteColors[name]; ok {
		return c
	}
	return config.PaletteColors[config.DefaultPaletteColor]
}
