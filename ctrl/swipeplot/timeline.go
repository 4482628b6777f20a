package swipeplot

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Activity is a labelled span of bit positions, such as one decoded symbol.
type Activity struct {
	Start float64
	End   float64
	Color color.Color
	Label string
}

// Marker is a glyph at a single bit position.
type Marker struct {
	Time  float64
	Glyph draw.GlyphStyle
}

// SymbolTimeline draws a row of boxes at a fixed Y, one per Activity, with a
// thin divider at every whole bit position inside each box.
type SymbolTimeline struct {
	Activities []Activity
	Markers    []Marker
	Location   float64
	Height     vg.Length

	Outline draw.LineStyle
	Divider draw.LineStyle
	Label   text.Style
}

var _ plot.Plotter = &SymbolTimeline{}

func NewSymbolTimeline(activities []Activity, markers []Marker, loc float64, height vg.Length) *SymbolTimeline {
	divider := plotter.DefaultLineStyle
	divider.Width = vg.Points(0.25)
	divider.Color = color.Gray{Y: 96}
	return &SymbolTimeline{
		Activities: activities,
		Markers:    markers,
		Location:   loc,
		Height:     height,
		Outline:    plotter.DefaultLineStyle,
		Divider:    divider,
		Label: text.Style{
			Font:    font.From(plotter.DefaultFont, plotter.DefaultFontSize),
			XAlign:  draw.XCenter,
			YAlign:  draw.YCenter,
			Handler: plot.DefaultTextHandler,
		},
	}
}

func (t *SymbolTimeline) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	y := trY(t.Location)
	if !c.ContainsY(y) {
		return
	}
	bottom, top := y-t.Height/2, y+t.Height/2

	for _, act := range t.Activities {
		left, right := trX(act.Start), trX(act.End)
		box := []vg.Point{
			{X: left, Y: bottom},
			{X: right, Y: bottom},
			{X: right, Y: top},
			{X: left, Y: top},
		}
		c.FillPolygon(act.Color, c.ClipPolygonX(box))
		for bit := math.Floor(act.Start) + 1; bit < act.End; bit++ {
			x := trX(bit)
			c.StrokeLines(t.Divider, c.ClipLinesX([]vg.Point{{X: x, Y: bottom}, {X: x, Y: top}})...)
		}
		c.StrokeLines(t.Outline, c.ClipLinesX(append(box, box[0]))...)
		if act.Label != "" {
			c.FillText(t.Label, vg.Point{X: (left + right) / 2, Y: y}, act.Label)
		}
	}

	for _, m := range t.Markers {
		c.DrawGlyph(m.Glyph, vg.Point{X: trX(m.Time), Y: y})
	}
}

// DataRange covers every span and marker; the Y range is the row itself.
func (t *SymbolTimeline) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	for _, act := range t.Activities {
		xmin, xmax = math.Min(xmin, act.Start), math.Max(xmax, act.End)
	}
	for _, m := range t.Markers {
		xmin, xmax = math.Min(xmin, m.Time), math.Max(xmax, m.Time)
	}
	if xmin > xmax {
		xmin, xmax = 0, 0
	}
	return xmin, xmax, t.Location, t.Location
}
