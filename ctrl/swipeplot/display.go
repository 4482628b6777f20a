package swipeplot

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vggio"
)

const viewerDPI = 128

// viewer renders one capture plot to fill its window.
type viewer struct {
	plot     *plot.Plot
	savePath string
}

func pixelsToLength(px int) vg.Length {
	return vg.Length(px) * vg.Inch / viewerDPI
}

func (v *viewer) layout(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	canvas := vggio.New(gtx, pixelsToLength(size.X), pixelsToLength(size.Y), vggio.UseDPI(viewerDPI))
	v.plot.Draw(draw.New(canvas))
	return layout.Dimensions{Size: size}
}

func (v *viewer) key(win *app.Window, e key.Event) {
	switch e.Name {
	case "Q", key.NameEscape:
		win.Close()
	case "S":
		if v.savePath == "" {
			return
		}
		if err := Save(v.plot, v.savePath); err != nil {
			log.Printf("could not save plot: %v", err)
		} else {
			log.Printf("saved plot to %s", v.savePath)
		}
	}
}

func (v *viewer) run(win *app.Window) {
	defer win.Close()
	ops := new(op.Ops)
	for e := range win.Events() {
		switch e := e.(type) {
		case system.FrameEvent:
			ops.Reset()
			gtx := layout.NewContext(ops, e)
			layout.UniformInset(unit.Dp(20)).Layout(gtx, v.layout)
			e.Frame(ops)
		case key.Event:
			v.key(win, e)
		case system.DestroyEvent:
			os.Exit(0)
		}
	}
}

// DisplayPlot opens a window showing p and does not return; closing the
// window exits the process. It must be called from the main goroutine.
// Pressing S writes the plot to savePath, when one is given.
func DisplayPlot(p *plot.Plot, title string, savePath string) error {
	v := &viewer{plot: p, savePath: savePath}
	go v.run(app.NewWindow(
		app.Title(title),
		app.Size(unit.Px(1280), unit.Px(480)),
	))
	app.Main()
	return nil
}
