package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/box-augment/internal/annotation"
)

// Palette assigns a display colour to each class id.
type Palette []color.NRGBA

// ClassPalette returns n colours with hues spread evenly around the HSV
// wheel, starting at red. Saturation and value are fixed so neighbouring
// classes differ only in hue.
func ClassPalette(n int) Palette {
	p := make(Palette, n)
	for i := range p {
		c := colorful.Hsv(360*float64(i)/float64(max(n, 1)), 0.85, 0.95)
		r, g, b := c.RGB255()
		p[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

// ParsePalette builds a palette from hex colour strings ("#RRGGBB"), one per
// class id in order.
func ParsePalette(hexes ...string) (Palette, error) {
	p := make(Palette, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("class %d: invalid colour %q: %w", i, h, err)
		}
		r, g, b := c.RGB255()
		p[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return p, nil
}

// PaletteFor returns the palette of a class map: its own Colors when they
// cover every class, otherwise ClassPalette.
func PaletteFor(classes annotation.ClassMap) (Palette, error) {
	n := classes.NumClasses()
	if len(classes.Colors) >= n && len(classes.Colors) > 0 {
		return ParsePalette(classes.Colors...)
	}
	return ClassPalette(n), nil
}

// Color returns the colour for classID and whether the palette covers it.
func (p Palette) Color(classID int) (color.NRGBA, bool) {
	if classID < 0 || classID >= len(p) {
		return color.NRGBA{}, false
	}
	return p[classID], true
}

// Scaled returns the colour for classID with every channel multiplied by
// magnitude/255, the additive fill used by tint stages. Classes outside the
// palette get black.
func (p Palette) Scaled(classID int, magnitude uint8) color.NRGBA {
	c, ok := p.Color(classID)
	if !ok {
		return color.NRGBA{A: 255}
	}
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(magnitude) / 255) }
	return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: 255}
}
