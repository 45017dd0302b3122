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


package detector

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/avollmer/beamgrid/internal/geom"
)

// Beam vector does not intersect the detector plane in the forward direction
var ErrNotForward = errors.New("beam vector does not intersect detector plane in forward direction")

// Sentinel coordinate marking a failed element in batch projection
var Sentinel = geom.Point2D{X:-1, Y:-1}

// Detector configuration as supplied by external collaborators, e.g. via
// JSON payloads. All lengths share one unit system chosen by the caller;
// pixel size converts in-plane lengths to pixel indices
type Config struct {
	XAxis     [3]float64 `json:"xAxis"`
	YAxis     [3]float64 `json:"yAxis"`
	Normal    [3]float64 `json:"normal"`
	PixelSize [2]float64 `json:"pixelSize"`
	Origin    [2]float64 `json:"origin"`
	Distance  float64    `json:"distance"`
}

// A projective transform from beam vectors to detector pixel coordinates.
// Immutable after construction: the in-plane axes are normalized and
// pre-divided by pixel size, so Apply yields pixel units directly.
type Transform struct {
	xAxis    geom.Vec3
	yAxis    geom.Vec3
	normal   geom.Vec3
	origin   geom.Point2D
	distance float64
}

// Creates a transform from the given coordinate system, pixel size, origin
// offset in pixel units, and sample-to-detector distance
func NewTransform(cs *geom.CoordinateSystem, pixelSize, origin geom.Point2D, distance float64) (*Transform, error) {
	if pixelSize.X<=0 || pixelSize.Y<=0 {
		return nil, fmt.Errorf("invalid pixel size %s", pixelSize)
	}
	if distance==0 {
		return nil, errors.New("sample-to-detector distance is zero")
	}
	return &Transform{
		xAxis    : cs.XAxis.Mul(1/pixelSize.X),
		yAxis    : cs.YAxis.Mul(1/pixelSize.Y),
		normal   : cs.Normal,
		origin   : origin,
		distance : distance,
	}, nil
}

// Creates a transform from an external configuration payload
func NewTransformFromConfig(cfg *Config) (*Transform, error) {
	cs, err:=geom.NewCoordinateSystem(
		geom.Vec3{X:cfg.XAxis[0],  Y:cfg.XAxis[1],  Z:cfg.XAxis[2]},
		geom.Vec3{X:cfg.YAxis[0],  Y:cfg.YAxis[1],  Z:cfg.YAxis[2]},
		geom.Vec3{X:cfg.Normal[0], Y:cfg.Normal[1], Z:cfg.Normal[2]})
	if err!=nil { return nil, err }
	return NewTransform(cs,
		geom.Point2D{X:cfg.PixelSize[0], Y:cfg.PixelSize[1]},
		geom.Point2D{X:cfg.Origin[0],    Y:cfg.Origin[1]},
		cfg.Distance)
}

// Projects a beam vector onto the detector plane and returns the pixel
// coordinate. The vector must point toward the plane on the same side as
// the distance sign convention, i.e. distance*(s1.normal)>0, else
// ErrNotForward. Scale of s1 cancels out, so it need not be unit length
func (t *Transform) Apply(s1 geom.Vec3) (geom.Point2D, error) {
	s1DotN:=s1.Dot(t.normal)
	if t.distance*s1DotN<=0 {
		return geom.Point2D{}, ErrNotForward
	}
	return geom.Point2D{
		X: t.origin.X + t.distance*s1.Dot(t.xAxis)/s1DotN,
		Y: t.origin.Y + t.distance*s1.Dot(t.yAxis)/s1DotN,
	}, nil
}

// Projects a batch of beam vectors element-wise. A failing element never
// aborts the batch: its output is the Sentinel coordinate (-1,-1), and all
// other elements are computed normally
func (t *Transform) ApplySlice(s1s []geom.Vec3) []geom.Point2D {
	res:=make([]geom.Point2D, len(s1s))
	for i, s1:=range s1s {
		p, err:=t.Apply(s1)
		if err!=nil {
			res[i]=Sentinel
		} else {
			res[i]=p
		}
	}
	return res
}

// Returns the unit beam vector whose forward projection lands on the given
// pixel coordinate. Solves the 3x3 basis system u.xAxis=(x-ox)/d,
// u.yAxis=(y-oy)/d, u.normal=1 and rescales to unit length. Fails if the
// configured axes are not linearly independent
func (t *Transform) Inverse(p geom.Point2D) (geom.Vec3, error) {
	a:=mat.NewDense(3, 3, []float64{
		t.xAxis.X,  t.xAxis.Y,  t.xAxis.Z,
		t.yAxis.X,  t.yAxis.Y,  t.yAxis.Z,
		t.normal.X, t.normal.Y, t.normal.Z,
	})
	b:=mat.NewVecDense(3, []float64{
		(p.X-t.origin.X)/t.distance,
		(p.Y-t.origin.Y)/t.distance,
		1,
	})
	var u mat.VecDense
	if err:=u.SolveVec(a, b); err!=nil {
		return geom.Vec3{}, fmt.Errorf("detector axes are not linearly independent: %w", err)
	}
	s1:=geom.Vec3{X:u.AtVec(0), Y:u.AtVec(1), Z:u.AtVec(2)}
	if t.distance<0 {  // keep distance*(s1.normal)>0 for negative distances
		s1=s1.Mul(-1)
	}
	return s1.Normalize()
}
