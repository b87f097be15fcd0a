package dataset

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/notargets/spectralns/utils"
)

// fieldGrid adapts a square field to plotter.GridXYZ with cell centers in
// physical coordinates.
type fieldGrid struct {
	w utils.Matrix
	d float64
}

func (fg fieldGrid) Dims() (c, r int)   { r, c = fg.w.Dims(); return }
func (fg fieldGrid) Z(c, r int) float64 { return fg.w.At(r, c) }
func (fg fieldGrid) X(c int) float64    { return (float64(c) + 0.5) * fg.d }
func (fg fieldGrid) Y(r int) float64    { return (float64(r) + 0.5) * fg.d }

func heatMapPlot(title string, w utils.Matrix, d, zMax float64) (p *plot.Plot) {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-zMax)
	cm.SetMax(zMax)
	p = plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	hm := plotter.NewHeatMap(fieldGrid{w: w, d: d}, cm.Palette(255))
	hm.Min, hm.Max = -zMax, zMax
	p.Add(hm)
	return
}

// SavePreview renders the initial and evolved vorticity of one sample side by
// side into a PNG. Both panels share a symmetric color scale.
func SavePreview(fileName string, s Sample, L float64) (err error) {
	var (
		N, _ = s.Initial.Dims()
		d    = L / float64(N)
		zMax = max(absMax(s.Initial), absMax(s.Evolved))
		file *os.File
	)
	if zMax == 0 {
		zMax = 1
	}
	plots := [][]*plot.Plot{{
		heatMapPlot("initial vorticity", s.Initial, d, zMax),
		heatMapPlot("evolved vorticity", s.Evolved, d, zMax),
	}}
	img := vgimg.New(vg.Points(900), vg.Points(450))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := 0; j < tiles.Cols; j++ {
		plots[0][j].Draw(canvases[0][j])
	}
	if file, err = os.Create(fileName); err != nil {
		return
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err = png.WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", fileName, err)
	}
	return file.Close()
}

func absMax(w utils.Matrix) float64 {
	return max(-w.Min(), w.Max())
}
