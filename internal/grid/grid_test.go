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
	"encoding/json"
	"math"
	"strings"
	"testing"
	"github.com/valyala/fastrand"
)

func TestGridValidate(t *testing.T) {
	g:=New(4, 3)
	if err:=g.Validate(); err!=nil {
		t.Errorf("fresh grid invalid: %s", err.Error())
	}
	g.Data=g.Data[:5]
	if err:=g.Validate(); err==nil {
		t.Errorf("truncated data accepted; want error")
	}
	if err:=(&Grid{Width:0, Height:3}).Validate(); err==nil {
		t.Errorf("zero width accepted; want error")
	}
	v:=NewWithVariance(2, 2)
	v.Variance=v.Variance[:3]
	if err:=v.Validate(); err==nil {
		t.Errorf("mismatched variance accepted; want error")
	}
}

func TestGridValidCount(t *testing.T) {
	g:=New(3, 2)
	if g.Valid()!=6 { t.Errorf("valid=%d; want 6", g.Valid()) }
	g.Data[1]=float32(math.NaN())
	g.Data[4]=float32(math.NaN())
	if g.Valid()!=4 { t.Errorf("valid=%d; want 4", g.Valid()) }
	if g.IsValid(1, 0) { t.Errorf("cell (1,0) reported valid; want invalid") }
	if !g.IsValid(0, 0) { t.Errorf("cell (0,0) reported invalid; want valid") }
}

func TestGridStatsSkipsNaN(t *testing.T) {
	g:=New(5, 1)
	copy(g.Data, []float32{2, float32(math.NaN()), 6, 4, float32(math.NaN())})
	s:=g.Stats()
	if s.Valid!=3 { t.Errorf("valid=%d; want 3", s.Valid) }
	if s.Min!=2 { t.Errorf("min=%f; want 2", s.Min) }
	if s.Max!=6 { t.Errorf("max=%f; want 6", s.Max) }
	if s.Mean!=4 { t.Errorf("mean=%f; want 4", s.Mean) }
	if s.Median!=4 { t.Errorf("median=%f; want 4", s.Median) }
}

func TestGridStatsEmpty(t *testing.T) {
	g:=New(2, 2)
	for i:=range g.Data {
		g.Data[i]=float32(math.NaN())
	}
	s:=g.Stats()
	if s.Valid!=0 { t.Errorf("valid=%d; want 0", s.Valid) }
}

func TestGridJSONRoundTrip(t *testing.T) {
	g:=NewWithVariance(2, 2)
	copy(g.Data, []float32{1, float32(math.NaN()), 3, 4})
	copy(g.Variance, []float32{0.1, float32(math.NaN()), 0.3, 0.4})

	b, err:=json.Marshal(g)
	if err!=nil { t.Fatalf("marshal: %s", err.Error()) }
	if !strings.Contains(string(b), "null") {
		t.Errorf("NaN cell not encoded as null: %s", string(b))
	}

	var h Grid
	if err:=json.Unmarshal(b, &h); err!=nil { t.Fatalf("unmarshal: %s", err.Error()) }
	if err:=h.Validate(); err!=nil { t.Fatalf("decoded grid invalid: %s", err.Error()) }
	if h.IsValid(1, 0) { t.Errorf("null cell decoded as valid") }
	if h.At(0, 0)!=1 || h.At(0, 1)!=3 || h.At(1, 1)!=4 {
		t.Errorf("decoded values %v; want [1 NaN 3 4]", h.Data)
	}
	if !math.IsNaN(float64(h.Variance[1])) || h.Variance[3]!=0.4 {
		t.Errorf("decoded variances %v; want [0.1 NaN 0.3 0.4]", h.Variance)
	}
}

func TestMedianRandomPermutations(t *testing.T) {
	rng:=fastrand.RNG{}
	for i:=1; i<500; i++ {
		// prepare array of given length with a random permutation of 1..n
		arr:=make([]float32, i)
		for j:=0; j<len(arr); j++ {
			arr[j]=float32(j+1)
		}
		for j:=0; j<len(arr); j++ {
			k:=rng.Uint32n(uint32(len(arr)))
			arr[j], arr[k] = arr[k], arr[j]
		}

		expect:=float32((i+1)/2)
		if (i&1)==0 { expect=float32(i/2 + 1) }

		res:=qSelectMedianFloat32(arr)
		if res!=expect {
			t.Errorf("median(1..%d) got %f expect %f", i, res, expect)
		}
	}
}
