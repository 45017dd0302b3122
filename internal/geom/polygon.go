// Copyright (C) 2025 Andreas Vollmer
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package geom

import (
	"math"
)

// A convex polygon as an ordered ring of vertices, with an implicit closing
// edge from the last vertex back to the first. Counter-clockwise winding is
// canonical; Normalized() converts clockwise input. Polygons with fewer than
// three vertices are valid degenerate results with zero area.
type Polygon []Point2D

// Returns the signed area of the polygon per the shoelace formula.
// Positive for counter-clockwise winding, negative for clockwise
func (p Polygon) SignedArea() float64 {
	if len(p)<3 { return 0 }
	sum:=0.0
	for i, cur:=range p {
		next:=p[(i+1)%len(p)]
		sum+=cur.X*next.Y - next.X*cur.Y
	}
	return 0.5*sum
}

// Returns the absolute area enclosed by the polygon
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Returns the polygon in counter-clockwise winding, reversing the vertex
// order if needed. The receiver is not modified
func (p Polygon) Normalized() Polygon {
	if p.SignedArea()>=0 { return p }
	q:=make(Polygon, len(p))
	for i, pt:=range p {
		q[len(p)-1-i]=pt
	}
	return q
}

// Returns the axis-aligned bounding box of the polygon. A is the minimum
// corner, B the maximum. Zero rectangle for an empty polygon
func (p Polygon) BoundingBox() Rect2D {
	if len(p)==0 { return Rect2D{} }
	r:=Rect2D{p[0], p[0]}
	for _, pt:=range p[1:] {
		if pt.X<r.A.X { r.A.X=pt.X }
		if pt.Y<r.A.Y { r.A.Y=pt.Y }
		if pt.X>r.B.X { r.B.X=pt.X }
		if pt.Y>r.B.Y { r.B.Y=pt.Y }
	}
	return r
}

// Creates the axis-aligned unit square [x,x+1] x [y,y+1] in counter-clockwise winding
func UnitSquare(x, y float64) Polygon {
	return Polygon{{x,y}, {x+1,y}, {x+1,y+1}, {x,y+1}}
}

// Clips the subject polygon against the convex clip polygon using
// Sutherland-Hodgman successive half-plane clipping, and returns their
// intersection. Both inputs are winding-normalized at entry, and every
// intermediate polygon stays counter-clockwise, so the result area is
// always the non-negative overlap area. Results with fewer than three
// vertices encode "no overlap", not an error
func Clip(subject, clip Polygon) Polygon {
	if len(subject)<3 || len(clip)<3 { return nil }
	out:=subject.Normalized()
	clip=clip.Normalized()

	for i, a:=range clip {
		b:=clip[(i+1)%len(clip)]
		in:=out
		out=make(Polygon, 0, len(in)+1)
		for j, cur:=range in {
			next:=in[(j+1)%len(in)]
			curInside :=leftOrOn(a, b, cur)
			nextInside:=leftOrOn(a, b, next)
			if curInside {
				out=append(out, cur)
			}
			if curInside!=nextInside {
				out=append(out, intersectEdge(a, b, cur, next))
			}
		}
		if len(out)==0 { return out }
	}
	return out
}

// Returns the overlap area of the two convex polygons. Symmetric in its
// arguments, and bounded by the smaller input area
func ClipArea(a, b Polygon) float64 {
	return Clip(a, b).Area()
}

// Returns true if p lies on the clip edge a->b or strictly to its left.
// Points on the edge are kept so that touching polygons clip to a valid
// zero-area result instead of losing vertices
func leftOrOn(a, b, p Point2D) bool {
	return Cross2D(Sub2D(b,a), Sub2D(p,a))>=0
}

// Returns the intersection of segment p->q with the infinite line through
// a and b. Only called when p and q lie on opposite sides of the line, so
// the denominator cannot vanish
func intersectEdge(a, b, p, q Point2D) Point2D {
	d1:=Cross2D(Sub2D(b,a), Sub2D(p,a))
	d2:=Cross2D(Sub2D(b,a), Sub2D(q,a))
	t:=d1/(d1-d2)
	return Point2D{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)}
}
