// Package export renders stored trajectories to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/storage"
)

// Palette is cycled through for successive ships.
var Palette = []string{"#00ffff", "#ff00ff", "#00ff88", "#ffcc00", "#ff4444", "#88aaff"}

type point struct{ X, Y float64 }

// Plane names the two position columns a trajectory is projected onto.
type Plane [2]string

var (
	PlaneXY = Plane{"px", "py"}
	PlaneXZ = Plane{"px", "pz"}
	PlaneYZ = Plane{"py", "pz"}
)

func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(s) {
	case "", "xy":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	}
	return Plane{}, dynamo.NewConfigError("plane", "unknown plane %q (xy, xz, yz)", s)
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) include(p point) {
	b.minX = min(b.minX, p.X)
	b.maxX = max(b.maxX, p.X)
	b.minY = min(b.minY, p.Y)
	b.maxY = max(b.maxY, p.Y)
}

// pad widens the box by 10% and keeps the aspect ratio square so distances
// read the same along both axes.
func (b *bounds) pad() {
	span := max(b.maxX-b.minX, b.maxY-b.minY)
	if span == 0 {
		span = 1
	}
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	half := span * 0.6
	b.minX, b.maxX = cx-half, cx+half
	b.minY, b.maxY = cy-half, cy+half
}

// TrajectorySVG draws every track projected onto plane, one colored path per
// ship, with a dot at each ship's final position.
func TrajectorySVG(tracks []*storage.Track, plane Plane, width, height int) (string, error) {
	paths := make([][]point, 0, len(tracks))
	var b bounds
	first := true
	for _, t := range tracks {
		xs, ys := t.Column(plane[0]), t.Column(plane[1])
		if xs == nil || ys == nil {
			return "", errors.Errorf("track %s has no %s/%s columns", t.Ship, plane[0], plane[1])
		}
		pts := make([]point, len(xs))
		for i := range xs {
			pts[i] = point{xs[i], ys[i]}
			if first {
				b = bounds{pts[i].X, pts[i].X, pts[i].Y, pts[i].Y}
				first = false
			}
			b.include(pts[i])
		}
		paths = append(paths, pts)
	}
	if first {
		return "", errors.New("no samples to draw")
	}
	b.pad()

	project := func(p point) (float64, float64) {
		x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
		y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, pts := range paths {
		if len(pts) == 0 {
			continue
		}
		color := Palette[i%len(Palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for j, p := range pts {
			x, y := project(p)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		x, y := project(pts[len(pts)-1])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="11">%s</text>
`, x, y, color, x+5, y-5, color, tracks[i].Ship))
	}

	sb.WriteString(fmt.Sprintf(`<text x="6" y="%d" fill="#666688" font-family="monospace" font-size="10">%s-%s  %.0f m across</text>
</svg>`, height-6, plane[0][1:], plane[1][1:], b.maxX-b.minX))
	return sb.String(), nil
}
