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


package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/avollmer/beamgrid/internal/geom"
)

// An affine mapping between pixel-index spaces:
// x' = a*x + b*y + c, y' = d*x + e*y + f
type Mapping struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

func (m Mapping) String() string {
	return fmt.Sprintf("x'=%.5gx %+.5gy %+.5g, y'=%.5gx %+.5gy %+.5g",
		m.A, m.B, m.C, m.D, m.E, m.F)
}

func IdentityMapping() Mapping {
	return Mapping{1,0,0, 0,1,0}
}

func NewTranslation(dx, dy float64) Mapping {
	return Mapping{1,0,dx, 0,1,dy}
}

// Creates a rotation by the given angle in radians about the given center point
func NewRotation(angle, cx, cy float64) Mapping {
	sin, cos:=math.Sincos(angle)
	return Mapping{
		A: cos, B: -sin, C: cx - cos*cx + sin*cy,
		D: sin, E:  cos, F: cy - sin*cx - cos*cy,
	}
}

// Apply given mapping to the given coordinates
func (m *Mapping) Apply(p geom.Point2D) geom.Point2D {
	return geom.Point2D{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Apply given mapping to many given coordinates
func (m *Mapping) ApplySlice(ps []geom.Point2D) []geom.Point2D {
	pPs:=make([]geom.Point2D, len(ps))
	for i, p:=range ps {
		pPs[i]=m.Apply(p)
	}
	return pPs
}

// Calculate the affine mapping from three given points in the first
// coordinate system, and corresponding points in the second.
// Fails for collinear input points
func NewMappingFromTriple(p1, p2, p3, p1p, p2p, p3p geom.Point2D) (Mapping, error) {
	det:=(p2.X-p1.X)*(p3.Y-p1.Y) - (p3.X-p1.X)*(p2.Y-p1.Y)
	if det==0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Mapping{}, errors.New("collinear points do not determine a mapping")
	}

	a:=( (p2p.X-p1p.X)*(p3.Y-p1.Y) - (p3p.X-p1p.X)*(p2.Y-p1.Y) ) / det
	b:=( (p3p.X-p1p.X)*(p2.X-p1.X) - (p2p.X-p1p.X)*(p3.X-p1.X) ) / det
	c:=p1p.X - a*p1.X - b*p1.Y

	d:=( (p2p.Y-p1p.Y)*(p3.Y-p1.Y) - (p3p.Y-p1p.Y)*(p2.Y-p1.Y) ) / det
	e:=( (p3p.Y-p1p.Y)*(p2.X-p1.X) - (p2p.Y-p1p.Y)*(p3.X-p1.X) ) / det
	f:=p1p.Y - d*p1.X - e*p1.Y

	return Mapping{a,b,c,d,e,f}, nil
}

// Invert a given mapping. Fails for singular mappings
func (m *Mapping) Invert() (inv Mapping, err error) {
	det:=m.A*m.E - m.B*m.D
	if det<1e-12 && -det<1e-12 {
		return Mapping{}, fmt.Errorf("mapping has no inverse, determinant=%g", det)
	}
	/*  x' = a*x + b*y + c and y' = d*x + e*y + f solved for x and y:
	    x  = ( e*(x'-c) - b*(y'-f) ) / (a*e-b*d)
	    y  = (-d*(x'-c) + a*(y'-f) ) / (a*e-b*d)  */
	return Mapping{
		A:  m.E/det, B: -m.B/det, C: (m.B*m.F - m.C*m.E)/det,
		D: -m.D/det, E:  m.A/det, F: (m.C*m.D - m.A*m.F)/det,
	}, nil
}

// Fits an affine mapping to the given control point correspondences,
// src[i] -> dst[i]. Seeds a closed-form solution from the first three
// non-degenerate correspondences, then minimizes the RMS residual over all
// points with Nelder-Mead. Returns the mapping and the residual
func FitMapping(src, dst []geom.Point2D) (m Mapping, residual float64, err error) {
	if len(src)<3 || len(src)!=len(dst) {
		return Mapping{}, 0, fmt.Errorf("need at least 3 control point pairs, have %d and %d", len(src), len(dst))
	}

	seed:=IdentityMapping()
	for i:=2; i<len(src); i++ {
		s, err:=NewMappingFromTriple(src[0], src[1], src[i], dst[0], dst[1], dst[i])
		if err==nil {
			seed=s
			break
		}
	}

	rms:=func(m *Mapping) float64 {
		sumSq:=0.0
		for i, s:=range src {
			sumSq+=distSquared(m.Apply(s), dst[i])
		}
		return math.Sqrt(sumSq/float64(len(src)))
	}

	x0:=[]float64{seed.A, seed.B, seed.C, seed.D, seed.E, seed.F}
	problem:=optimize.Problem{
		Func: func(x []float64) float64 {
			m:=Mapping{x[0], x[1], x[2], x[3], x[4], x[5]}
			return rms(&m)
		},
	}
	result, err:=optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err!=nil {
		// fall back to the closed-form seed
		return seed, rms(&seed), nil
	}

	x:=result.X
	m=Mapping{x[0], x[1], x[2], x[3], x[4], x[5]}
	return m, result.F, nil
}

func distSquared(a, b geom.Point2D) float64 {
	dx, dy:=a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
