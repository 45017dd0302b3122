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


package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/avollmer/beamgrid/internal/detector"
	"github.com/avollmer/beamgrid/internal/geom"
	"github.com/avollmer/beamgrid/internal/grid"
	"github.com/avollmer/beamgrid/internal/render"
	"github.com/avollmer/beamgrid/internal/rest"
)

const version = "0.1.2"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out  = flag.String("out", "out.json", "save output to `file`")
var jpg  = flag.String("jpg", "%auto", "save heat-map preview of the output grid as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var tif  = flag.String("tiff", "", "save output grid as 16-bit grayscale TIFF to `file`")
var log  = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var det       = flag.String("detector", "", "load detector configuration from `file` (project command)")
var mapping   = flag.String("mapping", "", "target-to-source pixel mapping as `a,b,c,d,e,f` (regrid command)")
var rotate    = flag.Float64("rotate", 0, "build mapping: rotation about the target grid center in degrees")
var shiftX    = flag.Float64("shiftX", 0, "build mapping: shift in x pixels, applied after rotation")
var shiftY    = flag.Float64("shiftY", 0, "build mapping: shift in y pixels, applied after rotation")
var dstWidth  = flag.Int64("dstWidth",  0, "target grid width in pixels, 0=same as source")
var dstHeight = flag.Int64("dstHeight", 0, "target grid height in pixels, 0=same as source")

var scaleMin = flag.Float64("min", 0, "preview black point, 0 with max=0: use grid statistics")
var scaleMax = flag.Float64("max", 0, "preview white point, 0 with min=0: use grid statistics")
var quality  = flag.Int64("quality", 95, "JPEG quality in [1,100]")

var maxThreads = flag.Int64("maxThreads", 0, "number of parallel worker threads, 0=all logical CPUs")

func main() {
	flag.Usage=func(){
		fmt.Printf(`beamgrid Copyright (c) 2025 Andreas Vollmer
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (project|regrid|fit|serve|legal|version) (input.json)

Commands:
  project Project beam vectors from input file onto detector pixel coordinates
  regrid  Redistribute the input grid onto a target grid via area-weighted overlap
  fit     Fit a pixel mapping to control point pairs from the input file
  serve   Run the REST API server
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		if err:=LogAlsoToFile(*log); err!=nil {
			LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Also auto-select JPEG output target
	if *jpg=="%auto" {
		if *out!="" {
			*jpg=strings.TrimSuffix(*out, filepath.Ext(*out))+".jpg"
		} else {
			*jpg=""
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil {
			LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil {
			LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	switch args[0] {
	case "project":
		cmdProject(args[1:])
	case "regrid":
		cmdRegrid(args[1:])
	case "fit":
		cmdFit(args[1:])
	case "serve":
		rest.Serve()
	case "legal":
		LogPrint(legal)
	case "version":
		LogPrintf("beamgrid version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		LogFatalf("Unknown command '%s'\n", args[0])
	}

	// Store memory profile if flagged
	if *memprofile!="" {
		f, err:=os.Create(*memprofile)
		if err!=nil {
			LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC()
		if err:=pprof.WriteHeapProfile(f); err!=nil {
			LogFatal("Could not write allocation profile: ", err)
		}
	}
}

// Project beam vectors from a JSON input file ([[x,y,z],...]) onto
// detector pixel coordinates, using the lenient batch contract
func cmdProject(args []string) {
	if len(args)!=1 { LogFatal("project requires exactly one input file\n") }
	if *det=="" { LogFatal("project requires a -detector configuration file\n") }

	var cfg detector.Config
	if err:=readJSON(*det, &cfg); err!=nil {
		LogFatalf("Error reading detector configuration %s: %s\n", *det, err.Error())
	}
	trans, err:=detector.NewTransformFromConfig(&cfg)
	if err!=nil {
		LogFatalf("Invalid detector configuration: %s\n", err.Error())
	}

	var raw [][3]float64
	if err:=readJSON(args[0], &raw); err!=nil {
		LogFatalf("Error reading beam vectors %s: %s\n", args[0], err.Error())
	}
	s1s:=make([]geom.Vec3, len(raw))
	for i, v:=range raw {
		s1s[i]=geom.Vec3{X:v[0], Y:v[1], Z:v[2]}
	}

	points:=trans.ApplySlice(s1s)
	failed:=0
	coords:=make([][2]float64, len(points))
	for i, p:=range points {
		if p==detector.Sentinel { failed++ }
		coords[i]=[2]float64{p.X, p.Y}
	}
	LogPrintf("Projected %d beam vectors, %d failed with sentinel (-1,-1)\n", len(points), failed)

	if err:=writeJSON(*out, coords); err!=nil {
		LogFatalf("Error writing %s: %s\n", *out, err.Error())
	}
}

// Redistribute the input grid onto a target grid via area-weighted overlap
func cmdRegrid(args []string) {
	if len(args)!=1 { LogFatal("regrid requires exactly one input file\n") }

	var src grid.Grid
	if err:=readJSON(args[0], &src); err!=nil {
		LogFatalf("Error reading source grid %s: %s\n", args[0], err.Error())
	}
	if err:=src.Validate(); err!=nil {
		LogFatalf("Invalid source grid: %s\n", err.Error())
	}

	dstW, dstH:=int32(*dstWidth), int32(*dstHeight)
	if dstW==0 { dstW=src.Width }
	if dstH==0 { dstH=src.Height }

	m, err:=buildMapping(dstW, dstH)
	if err!=nil {
		LogFatalf("Invalid mapping: %s\n", err.Error())
	}

	ctx:=grid.NewContext(logWriter())
	if *maxThreads>0 { ctx.MaxThreads=int(*maxThreads) }
	LogPrintf("Using %d worker threads, %d MiB physical memory\n", ctx.MaxThreads, ctx.MemoryMB)

	res, err:=grid.Regrid(&src, dstW, dstH, m, ctx)
	if err!=nil {
		LogFatalf("Error regridding: %s\n", err.Error())
	}
	stats:=res.Stats()
	LogPrintf("Output grid statistics: %s\n", stats.String())

	if err:=writeJSON(*out, res); err!=nil {
		LogFatalf("Error writing %s: %s\n", *out, err.Error())
	}
	min, max:=float32(*scaleMin), float32(*scaleMax)
	if min==max {
		min, max=stats.Min, stats.Max
		if min==max { max=min+1 }
	}
	if *jpg!="" {
		LogPrintf("Writing %s pixel heat map JPEG to %s\n", res.DimensionsToString(), *jpg)
		if err:=render.WriteJPGToFile(res, *jpg, min, max, int(*quality)); err!=nil {
			LogFatalf("Error writing %s: %s\n", *jpg, err.Error())
		}
	}
	if *tif!="" {
		LogPrintf("Writing %s pixel 16-bit TIFF to %s\n", res.DimensionsToString(), *tif)
		if err:=render.WriteTIFF16ToFile(res, *tif, min, max); err!=nil {
			LogFatalf("Error writing %s: %s\n", *tif, err.Error())
		}
	}
}

// Control point pairs for fitting a pixel mapping
type fitArgs struct {
	Src [][2]float64 `json:"src"`
	Dst [][2]float64 `json:"dst"`
}

// Fit a pixel mapping to control point pairs from the input file
func cmdFit(args []string) {
	if len(args)!=1 { LogFatal("fit requires exactly one input file\n") }

	var fa fitArgs
	if err:=readJSON(args[0], &fa); err!=nil {
		LogFatalf("Error reading control points %s: %s\n", args[0], err.Error())
	}
	src:=make([]geom.Point2D, len(fa.Src))
	for i, p:=range fa.Src { src[i]=geom.Point2D{X:p[0], Y:p[1]} }
	dst:=make([]geom.Point2D, len(fa.Dst))
	for i, p:=range fa.Dst { dst[i]=geom.Point2D{X:p[0], Y:p[1]} }

	m, residual, err:=grid.FitMapping(src, dst)
	if err!=nil {
		LogFatalf("Error fitting mapping: %s\n", err.Error())
	}
	LogPrintf("Fitted mapping %s with residual %.6g over %d control points\n", m.String(), residual, len(src))

	if err:=writeJSON(*out, m); err!=nil {
		LogFatalf("Error writing %s: %s\n", *out, err.Error())
	}
}

// Builds the target-to-source mapping from the -mapping coefficients, or
// from -rotate/-shiftX/-shiftY about the target grid center
func buildMapping(dstW, dstH int32) (grid.Mapping, error) {
	if *mapping!="" {
		parts:=strings.Split(*mapping, ",")
		if len(parts)!=6 {
			return grid.Mapping{}, fmt.Errorf("mapping needs 6 coefficients, have %d", len(parts))
		}
		coeffs:=make([]float64, 6)
		for i, p:=range parts {
			c, err:=strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err!=nil { return grid.Mapping{}, err }
			coeffs[i]=c
		}
		return grid.Mapping{A: coeffs[0], B: coeffs[1], C: coeffs[2], D: coeffs[3], E: coeffs[4], F: coeffs[5]}, nil
	}

	m:=grid.IdentityMapping()
	if *rotate!=0 {
		m=grid.NewRotation(*rotate*math.Pi/180, float64(dstW)*0.5, float64(dstH)*0.5)
	}
	m.C+=*shiftX
	m.F+=*shiftY
	return m, nil
}

func readJSON(fileName string, v interface{}) error {
	data, err:=os.ReadFile(fileName)
	if err!=nil { return err }
	return json.Unmarshal(data, v)
}

func writeJSON(fileName string, v interface{}) error {
	if fileName=="" { return nil }
	data, err:=json.Marshal(v)
	if err!=nil { return err }
	return os.WriteFile(fileName, data, 0644)
}
