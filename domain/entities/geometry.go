package entities

import "fmt"

// EdgeInset is how far inside the box edge anchors land
const EdgeInset = 1.0

// Anchor names a point inside a bounding box
type Anchor string

const (
	AnchorCenter    Anchor = "center"
	AnchorLeftEdge  Anchor = "left-edge"
	AnchorRightEdge Anchor = "right-edge"
	AnchorFraction  Anchor = "fraction"
)

// Point is a viewport coordinate in CSS pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is the rendered rectangle of an element
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty - reports whether the box has no area, i.e. the element is not laid out
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Center - midpoint of the box
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains - reports whether p lies inside the box (right and bottom edges excluded)
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.X && p.X < b.X+b.Width && p.Y >= b.Y && p.Y < b.Y+b.Height
}

// PointAt - resolves an anchor to a point inside the box.
// fraction is only used by AnchorFraction and is clamped to [0, 1].
func (b BoundingBox) PointAt(anchor Anchor, fraction float64) (Point, error) {
	if b.Empty() {
		return Point{}, fmt.Errorf("bounding box %vx%v has no area", b.Width, b.Height)
	}

	p := b.Center()
	// too narrow for an inset on both sides
	if b.Width <= 2*EdgeInset {
		switch anchor {
		case AnchorCenter, AnchorLeftEdge, AnchorRightEdge, AnchorFraction, "":
			return p, nil
		}
	}

	switch anchor {
	case AnchorCenter, "":
	case AnchorLeftEdge:
		p.X = b.X + EdgeInset
	case AnchorRightEdge:
		p.X = b.X + b.Width - EdgeInset
	case AnchorFraction:
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		p.X = b.X + EdgeInset + fraction*(b.Width-2*EdgeInset)
	default:
		return Point{}, fmt.Errorf("unknown anchor %q", anchor)
	}
	return p, nil
}
