package helix

import "image/color"

// Surface is a 2-D drawing target sized to the viewport.
type Surface interface {
	Size() (w, h float64)
	Clear()
	StrokePath(p *Path, clr color.Color, width float64)
	FillCircle(cx, cy, r float64, clr color.Color)
}

// CurveSteps is how many straight pieces surfaces split each curve segment
// into. Wave samples are a few pixels apart, so a handful is enough.
const CurveSteps = 4

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

type segKind uint8

const (
	segMove segKind = iota
	segLine
	segQuad
)

type segment struct {
	kind segKind
	ctrl Point // segQuad only
	to   Point
}

// Path is an open polyline made of straight and quadratic segments.
type Path struct {
	segs []segment
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, segment{kind: segMove, to: Point{x, y}})
}

// LineTo adds a straight segment from the current point.
func (p *Path) LineTo(x, y float64) {
	p.segs = append(p.segs, segment{kind: segLine, to: Point{x, y}})
}

// QuadTo adds a quadratic Bézier segment with control point (cx, cy).
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.segs = append(p.segs, segment{kind: segQuad, ctrl: Point{cx, cy}, to: Point{x, y}})
}

// Len returns the number of recorded segments, MoveTo included.
func (p *Path) Len() int { return len(p.segs) }

// Reset empties the path, keeping its storage.
func (p *Path) Reset() { p.segs = p.segs[:0] }

// Flatten converts the path into polylines, one per subpath. Each quadratic
// segment is split into steps straight pieces. A segment with no preceding
// MoveTo starts a subpath at its own end point.
func (p *Path) Flatten(steps int) [][]Point {
	if steps < 1 {
		steps = 1
	}
	var out [][]Point
	var cur []Point
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, s := range p.segs {
		switch s.kind {
		case segMove:
			flush()
			cur = []Point{s.to}
		case segLine:
			if len(cur) == 0 {
				cur = []Point{s.to}
				continue
			}
			cur = append(cur, s.to)
		case segQuad:
			if len(cur) == 0 {
				cur = []Point{s.to}
				continue
			}
			from := cur[len(cur)-1]
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*from.X + 2*u*t*s.ctrl.X + t*t*s.to.X,
					Y: u*u*from.Y + 2*u*t*s.ctrl.Y + t*t*s.to.Y,
				})
			}
		}
	}
	flush()
	return out
}
