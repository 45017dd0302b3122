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


package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avollmer/beamgrid/internal/detector"
	"github.com/avollmer/beamgrid/internal/geom"
	"github.com/avollmer/beamgrid/internal/grid"
)

func Serve() {
	r:=gin.Default()
	api:=r.Group("/api")
	{
		v1:=api.Group("/v1")
		{
			v1.GET ("/ping",    getPing)
			v1.POST("/project", postProject)
			v1.POST("/regrid",  postRegrid)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

type postProjectArgs struct {
	Detector *detector.Config `json:"detector"`
	Vectors  [][3]float64     `json:"vectors"`
}

// Projects a batch of beam vectors onto detector pixel coordinates.
// Failed elements come back as the (-1,-1) sentinel, not an error
func postProject(c *gin.Context) {
	var args postProjectArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	if args.Detector==nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing detector configuration"} )
		return
	}

	trans, err:=detector.NewTransformFromConfig(args.Detector)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}

	s1s:=make([]geom.Vec3, len(args.Vectors))
	for i, v:=range args.Vectors {
		s1s[i]=geom.Vec3{X:v[0], Y:v[1], Z:v[2]}
	}
	points:=trans.ApplySlice(s1s)

	coords:=make([][2]float64, len(points))
	for i, p:=range points {
		coords[i]=[2]float64{p.X, p.Y}
	}
	c.JSON(http.StatusOK, gin.H{"coordinates": coords})
}

type postRegridArgs struct {
	Source    *grid.Grid   `json:"source"`
	Mapping   grid.Mapping `json:"mapping"`
	DstWidth  int32        `json:"dstWidth"`
	DstHeight int32        `json:"dstHeight"`
}

// Redistributes a source grid onto target dimensions via the given
// target-to-source pixel index mapping
func postRegrid(c *gin.Context) {
	var args postRegridArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	if args.Source==nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing source grid"} )
		return
	}

	dstW, dstH:=args.DstWidth, args.DstHeight
	if dstW==0 { dstW=args.Source.Width }
	if dstH==0 { dstH=args.Source.Height }

	ctx:=grid.NewContext(nil)
	res, err:=grid.Regrid(args.Source, dstW, dstH, args.Mapping, ctx)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	stats:=res.Stats()
	c.JSON(http.StatusOK, gin.H{
		"grid"  : res,
		"valid" : stats.Valid,
		"min"   : stats.Min,
		"mean"  : stats.Mean,
		"max"   : stats.Max,
		"median": stats.Median,
	})
}
