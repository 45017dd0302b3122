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
	"fmt"
	"math"
)

// A width x height pixel grid with flat row-major scalar values, and
// optionally per-cell variances of the same shape. Cells without coverage
// hold IEEE NaN; use IsValid to distinguish "no data" from zero intensity.
// The grid's geometric mapping to detector coordinates is supplied
// externally and not owned by the grid itself
type Grid struct {
	Width    int32     `json:"width"`
	Height   int32     `json:"height"`
	Data     []float32 `json:"data"`
	Variance []float32 `json:"variance,omitempty"`
}

// Creates a grid of the given dimensions with all values zero
func New(width, height int32) *Grid {
	return &Grid{
		Width  : width,
		Height : height,
		Data   : make([]float32, width*height),
	}
}

// Creates a grid of the given dimensions with zero values and variances
func NewWithVariance(width, height int32) *Grid {
	g:=New(width, height)
	g.Variance=make([]float32, width*height)
	return g
}

// Validates grid dimensions against the data payload, e.g. after JSON decoding
func (g *Grid) Validate() error {
	if g.Width<=0 || g.Height<=0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", g.Width, g.Height)
	}
	if int32(len(g.Data))!=g.Width*g.Height {
		return fmt.Errorf("grid data has %d values, dimensions %dx%d require %d",
			              len(g.Data), g.Width, g.Height, g.Width*g.Height)
	}
	if g.Variance!=nil && len(g.Variance)!=len(g.Data) {
		return fmt.Errorf("grid variance has %d values, want %d", len(g.Variance), len(g.Data))
	}
	return nil
}

func (g *Grid) At(x, y int32) float32 {
	return g.Data[y*g.Width+x]
}

// Returns true if the cell holds an actual value, false for the NaN
// no-coverage marker
func (g *Grid) IsValid(x, y int32) bool {
	return !math.IsNaN(float64(g.Data[y*g.Width+x]))
}

// Returns the number of cells holding actual values
func (g *Grid) Valid() int {
	n:=0
	for _, d:=range g.Data {
		if !math.IsNaN(float64(d)) { n++ }
	}
	return n
}

func (g *Grid) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// JSON shape of a grid. NaN is not representable in JSON, so no-coverage
// cells travel as null
type gridJSON struct {
	Width    int32      `json:"width"`
	Height   int32      `json:"height"`
	Data     []*float32 `json:"data"`
	Variance []*float32 `json:"variance,omitempty"`
}

func toNullable(vals []float32) []*float32 {
	if vals==nil { return nil }
	res:=make([]*float32, len(vals))
	for i:=range vals {
		if !math.IsNaN(float64(vals[i])) {
			res[i]=&vals[i]
		}
	}
	return res
}

func fromNullable(vals []*float32) []float32 {
	if vals==nil { return nil }
	res:=make([]float32, len(vals))
	for i, v:=range vals {
		if v==nil {
			res[i]=float32(math.NaN())
		} else {
			res[i]=*v
		}
	}
	return res
}

// Marshals the grid to JSON, encoding NaN no-coverage markers as null
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(&gridJSON{
		Width    : g.Width,
		Height   : g.Height,
		Data     : toNullable(g.Data),
		Variance : toNullable(g.Variance),
	})
}

// Unmarshals a grid from JSON, decoding null cells as the NaN marker
func (g *Grid) UnmarshalJSON(b []byte) error {
	var gj gridJSON
	if err:=json.Unmarshal(b, &gj); err!=nil { return err }
	g.Width, g.Height = gj.Width, gj.Height
	g.Data    =fromNullable(gj.Data)
	g.Variance=fromNullable(gj.Variance)
	return nil
}

// Basic statistics over the valid cells of a grid
type Stats struct {
	Min    float32
	Mean   float32
	Max    float32
	Median float32
	Valid  int
}

func (s *Stats) String() string {
	return fmt.Sprintf("valid=%d min=%.4g mean=%.4g max=%.4g median=%.4g",
		               s.Valid, s.Min, s.Mean, s.Max, s.Median)
}

// Calculates statistics over the valid cells, skipping NaN markers.
// Returns zero stats for a grid with no valid cells
func (g *Grid) Stats() *Stats {
	valid:=make([]float32, 0, len(g.Data))
	for _, d:=range g.Data {
		if !math.IsNaN(float64(d)) {
			valid=append(valid, d)
		}
	}
	if len(valid)==0 { return &Stats{} }

	s:=&Stats{Min: valid[0], Max: valid[0], Valid: len(valid)}
	sum:=0.0
	for _, d:=range valid {
		if d<s.Min { s.Min=d }
		if d>s.Max { s.Max=d }
		sum+=float64(d)
	}
	s.Mean=float32(sum/float64(len(valid)))
	s.Median=qSelectMedianFloat32(valid)
	return s
}

// Select median of an array of float32. Partially reorders the array.
// Array must not contain IEEE NaN
func qSelectMedianFloat32(a []float32) float32 {
	return qSelectFloat32(a, (len(a)>>1)+1)
}

// Select kth lowest element from an array of float32 via quickselect with
// middle pivot. Partially reorders the array.
// Array must not contain IEEE NaN
func qSelectFloat32(a []float32, k int) float32 {
	left, right:=0, len(a)-1
	for left<right {
		// partition
		mid:=(left+right)>>1
		pivot:=a[mid]
		l, r:=left-1, right+1
		for {
			for {
				l++
				if a[l]>=pivot { break }
			}
			for {
				r--
				if a[r]<=pivot { break }
			}
			if l>=r { break } // index in r
			a[l], a[r] = a[r], a[l]
		}
		index:=r

		offset:=index-left+1
		if k<=offset {
			right=index
		} else {
			left=index+1
			k=k-offset
		}
	}
	return a[left]
}
