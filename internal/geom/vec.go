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
	"errors"
	"fmt"
	"math"
)

// A 2-dimensional point with floating point coordinates.
type Point2D struct {
	X float64
	Y float64
}

// A 2-dimensional axis-aligned rectangle with floating point coordinates
type Rect2D struct {
	A Point2D
	B Point2D
}

// A 3-dimensional vector with floating point coordinates.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.X, p.Y)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func Add2D(a,b Point2D) Point2D {
	return Point2D{a.X+b.X, a.Y+b.Y}
}

func Sub2D(a,b Point2D) Point2D {
	return Point2D{a.X-b.X, a.Y-b.Y}
}

// Returns the z component of the cross product of the two given 2D vectors
func Cross2D(a,b Point2D) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Returns the euclidian distance between the two given points
func Dist2D(a,b Point2D) float64 {
	dx, dy:=a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X+w.X, v.Y+w.Y, v.Z+w.Z}
}

func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X-w.X, v.Y-w.Y, v.Z-w.Z}
}

func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v.X*s, v.Y*s, v.Z*s}
}

func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// A detector-configuration axis of zero length cannot be normalized; the
// whole coordinate system is unusable
var ErrDegenerateAxis = errors.New("coordinate system axis has zero length")

// Returns the given vector scaled to unit length, or ErrDegenerateAxis
// for a zero-length vector
func (v Vec3) Normalize() (Vec3, error) {
	l:=v.Length()
	if l==0 { return Vec3{}, ErrDegenerateAxis }
	return v.Mul(1/l), nil
}

// An orthonormal detector frame: two in-plane axes and the plane normal.
// Axes are normalized at construction and never revalidated afterwards.
type CoordinateSystem struct {
	XAxis  Vec3
	YAxis  Vec3
	Normal Vec3
}

// Creates a coordinate system from the given axes and normal, normalizing
// each to unit length. The axes must be linearly independent; a zero-length
// axis returns ErrDegenerateAxis
func NewCoordinateSystem(xAxis, yAxis, normal Vec3) (*CoordinateSystem, error) {
	x, err:=xAxis.Normalize()
	if err!=nil { return nil, err }
	y, err:=yAxis.Normalize()
	if err!=nil { return nil, err }
	n, err:=normal.Normalize()
	if err!=nil { return nil, err }
	return &CoordinateSystem{x, y, n}, nil
}

// Creates a coordinate system from a plane normal alone, deriving an
// in-plane basis. Picks the world axis least parallel to the normal as
// the seed for the x axis
func NewCoordinateSystemFromNormal(normal Vec3) (*CoordinateSystem, error) {
	n, err:=normal.Normalize()
	if err!=nil { return nil, err }

	seed:=Vec3{1,0,0}
	if math.Abs(n.X)>math.Abs(n.Y) && math.Abs(n.X)>math.Abs(n.Z) {
		seed=Vec3{0,1,0}
	}
	y, err:=n.Cross(seed).Normalize()
	if err!=nil { return nil, err }
	x, err:=y.Cross(n).Normalize()
	if err!=nil { return nil, err }
	return &CoordinateSystem{x, y, n}, nil
}
