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
	"math"
	"testing"
	"github.com/valyala/fastrand"

	"github.com/avollmer/beamgrid/internal/geom"
)

// Standard configuration: detector normal along the beam, 0.1mm pixels,
// 100mm distance
func newTestTransform(t *testing.T) *Transform {
	cs, err:=geom.NewCoordinateSystem(geom.Vec3{X:1}, geom.Vec3{Y:1}, geom.Vec3{Z:1})
	if err!=nil { t.Fatalf("coordinate system: %s", err.Error()) }
	trans, err:=NewTransform(cs, geom.Point2D{X:0.1, Y:0.1}, geom.Point2D{}, 100)
	if err!=nil { t.Fatalf("transform: %s", err.Error()) }
	return trans
}

func TestApplyOnAxis(t *testing.T) {
	trans:=newTestTransform(t)
	p, err:=trans.Apply(geom.Vec3{Z:1})
	if err!=nil { t.Fatalf("apply: %s", err.Error()) }
	if p.X!=0 || p.Y!=0 {
		t.Errorf("on-axis beam maps to %s; want (0, 0)", p)
	}
}

func TestApplyOffAxis(t *testing.T) {
	trans:=newTestTransform(t)
	// 1mm lateral offset at 100mm distance is 10 pixels of 0.1mm
	p, err:=trans.Apply(geom.Vec3{X:0.01, Z:1})
	if err!=nil { t.Fatalf("apply: %s", err.Error()) }
	if math.Abs(p.X-10)>1e-9 || math.Abs(p.Y)>1e-9 {
		t.Errorf("beam maps to %s; want (10, 0)", p)
	}
}

func TestApplyScaleInvariant(t *testing.T) {
	trans:=newTestTransform(t)
	a, err:=trans.Apply(geom.Vec3{X:0.2, Y:-0.1, Z:1})
	if err!=nil { t.Fatalf("apply: %s", err.Error()) }
	b, err:=trans.Apply(geom.Vec3{X:0.2, Y:-0.1, Z:1}.Mul(17.3))
	if err!=nil { t.Fatalf("apply scaled: %s", err.Error()) }
	if math.Abs(a.X-b.X)>1e-9 || math.Abs(a.Y-b.Y)>1e-9 {
		t.Errorf("scaled beam maps to %s; want %s", b, a)
	}
}

func TestApplyGrazing(t *testing.T) {
	trans:=newTestTransform(t)
	if _, err:=trans.Apply(geom.Vec3{X:1}); err!=ErrNotForward {
		t.Errorf("grazing beam err=%v; want ErrNotForward", err)
	}
}

func TestApplyBackward(t *testing.T) {
	trans:=newTestTransform(t)
	if _, err:=trans.Apply(geom.Vec3{Z:-1}); err!=ErrNotForward {
		t.Errorf("backward beam err=%v; want ErrNotForward", err)
	}
}

func TestApplySliceSentinel(t *testing.T) {
	trans:=newTestTransform(t)
	s1s:=[]geom.Vec3{
		{Z:1},           // valid, on axis
		{X:1},           // grazing, fails
		{X:0.01, Z:1},   // valid
		{Z:-1},          // backward, fails
	}
	ps:=trans.ApplySlice(s1s)
	if len(ps)!=len(s1s) { t.Fatalf("len=%d; want %d", len(ps), len(s1s)) }
	if ps[0].X!=0 || ps[0].Y!=0 { t.Errorf("ps[0]=%s; want (0, 0)", ps[0]) }
	if ps[1]!=Sentinel { t.Errorf("ps[1]=%s; want sentinel (-1, -1)", ps[1]) }
	if math.Abs(ps[2].X-10)>1e-9 { t.Errorf("ps[2]=%s; want (10, 0)", ps[2]) }
	if ps[3]!=Sentinel { t.Errorf("ps[3]=%s; want sentinel (-1, -1)", ps[3]) }
}

func TestNewTransformInvalidPixelSize(t *testing.T) {
	cs, _:=geom.NewCoordinateSystem(geom.Vec3{X:1}, geom.Vec3{Y:1}, geom.Vec3{Z:1})
	if _, err:=NewTransform(cs, geom.Point2D{X:0, Y:0.1}, geom.Point2D{}, 100); err==nil {
		t.Errorf("zero pixel size accepted; want error")
	}
	if _, err:=NewTransform(cs, geom.Point2D{X:0.1, Y:0.1}, geom.Point2D{}, 0); err==nil {
		t.Errorf("zero distance accepted; want error")
	}
}

// A tilted detector with an origin offset, for round-trip testing
func newTiltedTransform(t *testing.T) *Transform {
	cs, err:=geom.NewCoordinateSystemFromNormal(geom.Vec3{X:0.2, Y:-0.1, Z:1})
	if err!=nil { t.Fatalf("coordinate system: %s", err.Error()) }
	trans, err:=NewTransform(cs, geom.Point2D{X:0.172, Y:0.172}, geom.Point2D{X:1234.5, Y:1152.0}, 190.5)
	if err!=nil { t.Fatalf("transform: %s", err.Error()) }
	return trans
}

func TestInverseRoundTrip(t *testing.T) {
	trans:=newTiltedTransform(t)
	rng:=fastrand.RNG{}
	for i:=0; i<100; i++ {
		p:=geom.Point2D{
			X: float64(rng.Uint32n(2463)),
			Y: float64(rng.Uint32n(2527)),
		}
		s1, err:=trans.Inverse(p)
		if err!=nil { t.Fatalf("inverse of %s: %s", p, err.Error()) }
		if math.Abs(s1.Length()-1)>1e-12 {
			t.Errorf("inverse beam vector length=%f; want 1", s1.Length())
		}
		q, err:=trans.Apply(s1)
		if err!=nil { t.Fatalf("apply of inverse of %s: %s", p, err.Error()) }
		if geom.Dist2D(p, q)>1e-6 {
			t.Errorf("round trip %s -> %s differs by %g", p, q, geom.Dist2D(p, q))
		}
	}
}

func TestInverseNegativeDistance(t *testing.T) {
	cs, _:=geom.NewCoordinateSystem(geom.Vec3{X:1}, geom.Vec3{Y:1}, geom.Vec3{Z:1})
	trans, err:=NewTransform(cs, geom.Point2D{X:0.1, Y:0.1}, geom.Point2D{}, -100)
	if err!=nil { t.Fatalf("transform: %s", err.Error()) }
	p:=geom.Point2D{X:25, Y:-75}
	s1, err:=trans.Inverse(p)
	if err!=nil { t.Fatalf("inverse: %s", err.Error()) }
	q, err:=trans.Apply(s1)
	if err!=nil { t.Fatalf("apply of inverse: %s", err.Error()) }
	if geom.Dist2D(p, q)>1e-6 {
		t.Errorf("round trip %s -> %s differs by %g", p, q, geom.Dist2D(p, q))
	}
}
