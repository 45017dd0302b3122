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
	"testing"
)

func TestNormalize(t *testing.T) {
	v, err:=Vec3{3, 0, 4}.Normalize()
	if err!=nil { t.Fatalf("normalize failed: %s", err.Error()) }
	if math.Abs(v.Length()-1)>1e-12 {
		t.Errorf("normalized length=%f; want 1", v.Length())
	}
	if math.Abs(v.X-0.6)>1e-12 || v.Y!=0 || math.Abs(v.Z-0.8)>1e-12 {
		t.Errorf("normalized vector=%s; want (0.6, 0, 0.8)", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	if _, err:=(Vec3{}).Normalize(); err!=ErrDegenerateAxis {
		t.Errorf("normalize of zero vector err=%v; want ErrDegenerateAxis", err)
	}
}

func TestNewCoordinateSystemNormalizes(t *testing.T) {
	cs, err:=NewCoordinateSystem(Vec3{2,0,0}, Vec3{0,3,0}, Vec3{0,0,0.5})
	if err!=nil { t.Fatalf("construction failed: %s", err.Error()) }
	for _, axis:=range []Vec3{cs.XAxis, cs.YAxis, cs.Normal} {
		if math.Abs(axis.Length()-1)>1e-12 {
			t.Errorf("axis %s has length %f; want 1", axis, axis.Length())
		}
	}
}

func TestNewCoordinateSystemDegenerateAxis(t *testing.T) {
	if _, err:=NewCoordinateSystem(Vec3{}, Vec3{0,1,0}, Vec3{0,0,1}); err!=ErrDegenerateAxis {
		t.Errorf("zero x axis err=%v; want ErrDegenerateAxis", err)
	}
	if _, err:=NewCoordinateSystem(Vec3{1,0,0}, Vec3{}, Vec3{0,0,1}); err!=ErrDegenerateAxis {
		t.Errorf("zero y axis err=%v; want ErrDegenerateAxis", err)
	}
	if _, err:=NewCoordinateSystem(Vec3{1,0,0}, Vec3{0,1,0}, Vec3{}); err!=ErrDegenerateAxis {
		t.Errorf("zero normal err=%v; want ErrDegenerateAxis", err)
	}
}

func TestNewCoordinateSystemFromNormal(t *testing.T) {
	for _, n:=range []Vec3{{0,0,1}, {1,0,0}, {0,1,0}, {1,1,1}, {-0.3,0.2,0.9}} {
		cs, err:=NewCoordinateSystemFromNormal(n)
		if err!=nil { t.Fatalf("construction from normal %s failed: %s", n, err.Error()) }
		if d:=cs.XAxis.Dot(cs.YAxis); math.Abs(d)>1e-12 {
			t.Errorf("normal %s: x.y=%g; want 0", n, d)
		}
		if d:=cs.XAxis.Dot(cs.Normal); math.Abs(d)>1e-12 {
			t.Errorf("normal %s: x.n=%g; want 0", n, d)
		}
		if d:=cs.YAxis.Dot(cs.Normal); math.Abs(d)>1e-12 {
			t.Errorf("normal %s: y.n=%g; want 0", n, d)
		}
		// right-handed: x cross y = n
		if d:=cs.XAxis.Cross(cs.YAxis).Sub(cs.Normal).Length(); d>1e-12 {
			t.Errorf("normal %s: x cross y differs from normal by %g", n, d)
		}
	}
}
