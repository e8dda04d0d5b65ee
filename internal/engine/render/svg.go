package render

import (
	"fmt"
	"strings"
)

// renderSVG emits one rect for the background and a single path tracing every
// dark module, in module coordinates with the quiet zone included in the
// viewBox.
func renderSVG(grid [][]bool, size int, opts Options) ([]byte, error) {
	fg := opts.Foreground
	if fg == "" {
		fg = "#000000"
	}
	bg := opts.Background
	if bg == "" {
		bg = "#ffffff"
	}

	total := len(grid) + 2*QuietZoneModules

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, total, total)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, total, total, bg)

	var path strings.Builder
	for y, row := range grid {
		for x, set := range row {
			if set {
				fmt.Fprintf(&path, "M%d %dh1v1h-1z", x+QuietZoneModules, y+QuietZoneModules)
			}
		}
	}
	fmt.Fprintf(&b, `<path d="%s" fill="%s"/>`, path.String(), fg)
	b.WriteString("</svg>")

	return []byte(b.String()), nil
}
