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


package render

import (
	"bufio"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"

	"github.com/avollmer/beamgrid/internal/grid"
)

// No-coverage cells render as dark magenta so they stand out from any
// plausible intensity color
var invalidColor = color.RGBA{64, 0, 64, 255}

// Write a color-mapped preview of the grid to JPG, scaling values from
// [min,max] onto a blue-to-red heat ramp. NaN cells use the invalid color
func WriteJPGToFile(g *grid.Grid, fileName string, min, max float32, quality int) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return WriteJPG(g, writer, min, max, quality)
}

// Write a color-mapped preview of the grid to JPG, using the given min and max.
func WriteJPG(g *grid.Grid, writer io.Writer, min, max float32, quality int) error {
	img:=renderHeat(g, min, max)
	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

func renderHeat(g *grid.Grid, min, max float32) *image.RGBA {
	width, height:=int(g.Width), int(g.Height)
	img:=image.NewRGBA(image.Rectangle{image.Point{0,0}, image.Point{width, height}})
	scale:=1.0/(max-min)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			v:=g.Data[yoffset+x]
			if math.IsNaN(float64(v)) {
				img.SetRGBA(x, y, invalidColor)
				continue
			}
			v=(v-min)*scale
			if v<0 { v=0 }
			if v>1 { v=1 }
			// hue 240 (blue) for the minimum down to 0 (red) for the maximum
			c:=colorful.Hsv(240*(1-float64(v)), 1, 1)
			r, gg, b:=c.RGB255()
			img.SetRGBA(x, y, color.RGBA{r, gg, b, 255})
		}
	}
	return img
}

// Write the grid to linear 16-bit grayscale TIFF, using the given min and max.
// NaN cells export as zero; use the JPG preview to locate coverage gaps
func WriteTIFF16ToFile(g *grid.Grid, fileName string, min, max float32) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return WriteTIFF16(g, writer, min, max)
}

// Write the grid to linear 16-bit grayscale TIFF, using the given min and max.
func WriteTIFF16(g *grid.Grid, writer io.Writer, min, max float32) error {
	width, height:=int(g.Width), int(g.Height)
	img:=image.NewGray16(image.Rectangle{image.Point{0,0}, image.Point{width, height}})
	scale:=1.0/(max-min)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			v:=g.Data[yoffset+x]
			v=(v-min)*scale
			// replace NaNs with zeros for export, else TIFF output breaks
			if math.IsNaN(float64(v)) || v<0 { v=0 }
			if v>1 { v=1 }
			img.SetGray16(x, y, color.Gray16{uint16(v*65535)})
		}
	}
	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}
