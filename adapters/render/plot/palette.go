package plot

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"wdiviz/domain/chart"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// magma control points, increasing in luminance
var magmaControls = []string{"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}

var set3 = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

var namedColors = map[string]color.RGBA{
	"skyblue": {R: 135, G: 206, B: 235, A: 255},
	"white":   {R: 255, G: 255, B: 255, A: 255},
	"grey":    {R: 200, G: 200, B: 200, A: 255},
}

// colorsFor returns n colours of the named palette
func colorsFor(name string, n int) ([]color.Color, error) {
	if n <= 0 {
		return nil, nil
	}
	switch name {
	case chart.PaletteMagma:
		controls := make([]color.Color, len(magmaControls))
		for i, hex := range magmaControls {
			c, err := parseHex(hex)
			if err != nil {
				return nil, err
			}
			controls[i] = c
		}
		cmap, err := moreland.NewLuminance(controls)
		if err != nil {
			return nil, err
		}
		// drop both ends so no group is drawn black or near-white
		all := cmap.Palette(n + 2).Colors()
		return all[1 : n+1], nil
	case chart.PaletteSet3:
		out := make([]color.Color, n)
		for i := range out {
			c, err := parseHex(set3[i%len(set3)])
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case chart.PaletteCoolwarm:
		return divergingPalette(n).Colors(), nil
	default:
		return nil, fmt.Errorf("unknown palette %q", name)
	}
}

// divergingPalette spans -1..1 from blue to red
func divergingPalette(n int) palette.Palette {
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	return cmap.Palette(n)
}

// namedColor resolves a colour name or #rrggbb value
func namedColor(name string) (color.Color, error) {
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c, nil
	}
	return parseHex(name)
}

func parseHex(hex string) (color.Color, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
