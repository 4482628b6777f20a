package swipeplot

import (
	"fmt"
	"image/color"

	"github.com/celskeggs/magstripe/stripe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	colorSentinel = color.RGBA{R: 128, G: 128, B: 255, A: 255}
	colorValid    = color.RGBA{R: 64, G: 192, B: 64, A: 255}
	colorParity   = color.RGBA{R: 224, G: 64, B: 64, A: 255}
	colorNull     = color.RGBA{R: 192, G: 192, B: 192, A: 255}
)

// symbol timeline sits below the bit trace
const timelineY = -1

// SymbolActivities turns an inspection into one timeline span per symbol.
func SymbolActivities(symbols []stripe.Symbol, f *stripe.Format) []Activity {
	activities := make([]Activity, 0, len(symbols))
	for _, s := range symbols {
		act := Activity{
			Start: float64(s.Offset),
			End:   float64(s.Offset + f.Width),
		}
		switch {
		case s.Null():
			act.Color = colorNull
		case !s.ParityOK:
			act.Color = colorParity
			act.Label = "!"
		case s.Value == f.StartSentinel:
			act.Color = colorSentinel
			act.Label = string(s.Char)
		default:
			act.Color = colorValid
			act.Label = string(s.Char)
		}
		activities = append(activities, act)
	}
	return activities
}

// NewCapturePlot draws the captured bit levels over the symbols they decode
// to. The capture is inspected in the orientation given; use
// stripe.ReverseBits first to view a backward swipe the right way round.
func NewCapturePlot(bits []bool, f *stripe.Format, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Bit"
	p.Y.Min = timelineY - 0.5
	p.Y.Max = 1.5

	levels := make(plotter.XYs, len(bits)+1)
	for i, bit := range bits {
		levels[i].X = float64(i)
		if bit {
			levels[i].Y = 1
		}
	}
	if len(bits) > 0 {
		levels[len(bits)] = plotter.XY{X: float64(len(bits)), Y: levels[len(bits)-1].Y}
	}
	line, err := plotter.NewLine(levels)
	if err != nil {
		return nil, err
	}
	line.StepStyle = plotter.PostStep
	p.Add(line)

	symbols := stripe.Inspect(stripe.MakeCapture(bits), f)
	var markers []Marker
	if len(symbols) > 0 {
		markers = append(markers, Marker{
			Time: float64(symbols[0].Offset),
			Glyph: draw.GlyphStyle{
				Color:  color.Black,
				Radius: vg.Points(5),
				Shape:  draw.PyramidGlyph{},
			},
		})
	}
	p.Add(NewSymbolTimeline(SymbolActivities(symbols, f), markers, timelineY, vg.Points(20)))
	p.Y.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: timelineY, Label: "symbols"},
		{Value: 0, Label: "0"},
		{Value: 1, Label: "1"},
	})
	return p, nil
}

// Describe summarises a decode of bits for a plot title. bits is not modified.
func Describe(bits []bool, f *stripe.Format) string {
	rec, err := stripe.Decode(stripe.MakeCapture(append([]bool{}, bits...)), f)
	if err != nil {
		return fmt.Sprintf("%d bits, %v format: decode failed", len(bits), f)
	}
	return fmt.Sprintf("%d bits, %v format, %v: %s", len(bits), f, rec.Direction, rec.Chars)
}

// Save writes p to path; the image type follows the file extension.
func Save(p *plot.Plot, path string) error {
	return p.Save(16*vg.Inch, 5*vg.Inch, path)
}
