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
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/pbnjay/memory"

	"github.com/avollmer/beamgrid/internal/geom"
)

// An execution context for grid operations
type Context struct {
	Log        io.Writer
	MemoryMB   int   // memory.TotalMemory()/1024/1024
	MaxThreads int   `json:"maxThreads"`
}

func NewContext(log io.Writer) *Context {
	return &Context{
		Log        : log,
		MemoryMB   : int(memory.TotalMemory()/1024/1024),
		MaxThreads : runtime.GOMAXPROCS(0),
	}
}

// Redistributes the source grid onto a target grid of the given dimensions.
// The mapping converts target pixel indices into source pixel indices.
// Each target cell's footprint is mapped into source index space and clipped
// against every source cell it could overlap; the target value is the
// overlap-area weighted mean of the source values. Target cells without any
// source coverage become NaN, never a silent zero. If the source grid
// carries variances, they are propagated as a weighted mean of independent
// measurements, and the result carries variances too.
//
// Rows are processed by independent workers; cells have no cross
// dependencies and write to disjoint output slots
func Regrid(src *Grid, dstWidth, dstHeight int32, m Mapping, c *Context) (*Grid, error) {
	if err:=src.Validate(); err!=nil { return nil, err }
	if dstWidth<=0 || dstHeight<=0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", dstWidth, dstHeight)
	}

	var dst *Grid
	if src.Variance!=nil {
		dst=NewWithVariance(dstWidth, dstHeight)
	} else {
		dst=New(dstWidth, dstHeight)
	}

	maxThreads:=1
	if c!=nil && c.MaxThreads>1 { maxThreads=c.MaxThreads }
	limiter:=make(chan bool, maxThreads)
	for row:=int32(0); row<dstHeight; row++ {
		limiter <- true
		go func(row int32) {
			defer func() { <-limiter }()
			regridRow(src, dst, row, &m)
		}(row)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}

	if c!=nil && c.Log!=nil {
		fmt.Fprintf(c.Log, "Regridded %s grid to %s with mapping %s; %d of %d target cells covered\n",
		            src.DimensionsToString(), dst.DimensionsToString(), m.String(), dst.Valid(), dstWidth*dstHeight)
	}
	return dst, nil
}

// Regrids a single target row. Writes only to that row of dst
func regridRow(src, dst *Grid, row int32, m *Mapping) {
	nan:=float32(math.NaN())
	for col:=int32(0); col<dst.Width; col++ {
		val, variance, ok:=regridCell(src, col, row, m)
		if !ok {
			dst.Data[row*dst.Width+col]=nan
			if dst.Variance!=nil { dst.Variance[row*dst.Width+col]=nan }
			continue
		}
		dst.Data[row*dst.Width+col]=float32(val)
		if dst.Variance!=nil { dst.Variance[row*dst.Width+col]=float32(variance) }
	}
}

// Computes the area-weighted value of one target cell. Maps the cell's four
// corners into source index space, enumerates the source cells under the
// mapped quadrilateral's bounding box, and accumulates overlap-area weighted
// sums. Returns ok=false if no source cell contributes area
func regridCell(src *Grid, col, row int32, m *Mapping) (val, variance float64, ok bool) {
	x, y:=float64(col), float64(row)
	quad:=geom.Polygon{
		m.Apply(geom.Point2D{X:x,   Y:y  }),
		m.Apply(geom.Point2D{X:x+1, Y:y  }),
		m.Apply(geom.Point2D{X:x+1, Y:y+1}),
		m.Apply(geom.Point2D{X:x,   Y:y+1}),
	}

	// local search window, not a full grid scan
	bbox:=quad.BoundingBox()
	sxLo:=int32(math.Floor(bbox.A.X))
	syLo:=int32(math.Floor(bbox.A.Y))
	sxHi:=int32(math.Ceil (bbox.B.X))
	syHi:=int32(math.Ceil (bbox.B.Y))
	if sxLo<0 { sxLo=0 }
	if syLo<0 { syLo=0 }
	if sxHi>src.Width  { sxHi=src.Width  }
	if syHi>src.Height { syHi=src.Height }

	num, denom, varNum:=0.0, 0.0, 0.0
	for sy:=syLo; sy<syHi; sy++ {
		for sx:=sxLo; sx<sxHi; sx++ {
			v:=src.Data[sy*src.Width+sx]
			if math.IsNaN(float64(v)) { continue }  // invalid source cells contribute no area
			area:=geom.ClipArea(quad, geom.UnitSquare(float64(sx), float64(sy)))
			if area==0 { continue }
			num  +=area*float64(v)
			denom+=area
			if src.Variance!=nil {
				varNum+=area*area*float64(src.Variance[sy*src.Width+sx])
			}
		}
	}
	if denom==0 { return 0, 0, false }
	// weights w_i=area_i/denom; variance of the weighted mean is
	// sum(w_i^2 * var_i) for independent source measurements
	return num/denom, varNum/(denom*denom), true
}
