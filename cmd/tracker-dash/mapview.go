package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/display"
)

// MapView is a tview primitive drawing the radar grid for the latest result.
type MapView struct {
	*tview.Box
	app *App
}

// NewMapView creates a new map view
func NewMapView(app *App) *MapView {
	mv := &MapView{
		Box: tview.NewBox(),
		app: app,
	}
	mv.SetBorder(true).SetTitle(" Map ")
	return mv
}

var mapStyles = map[rune]tcell.Style{
	display.GlyphRing:     tcell.StyleDefault.Foreground(tcell.ColorGray),
	display.GlyphCenter:   tcell.StyleDefault.Foreground(tcell.ColorOrange).Bold(true),
	display.GlyphAircraft: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	display.GlyphVector:   tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue),
	display.GlyphArrow:    tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue),
	'N':                   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	'E':                   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	'S':                   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
	'W':                   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
}

// Draw renders the radar using tcell
func (mv *MapView) Draw(screen tcell.Screen) {
	mv.Box.DrawForSubclass(screen, mv)

	x, y, width, height := mv.GetInnerRect()
	if width <= 0 || height <= 1 {
		return
	}

	mv.app.mu.RLock()
	res := mv.app.result
	mv.app.mu.RUnlock()

	if res != nil && res.Err != nil {
		tview.Print(screen, tview.Escape(res.Err.Error()), x, y+height/2, width, tview.AlignCenter, tcell.ColorRed)
		return
	}

	if res == nil || len(res.Records) == 0 {
		tview.Print(screen, display.NoDataMessage, x, y+height/2, width, tview.AlignCenter, tcell.ColorYellow)
		return
	}

	center := coordinates.Geographic{Latitude: res.Input.Latitude, Longitude: res.Input.Longitude}
	radar := display.NewRadar(center, res.Input.RadiusMiles, width, height-1)
	grid := radar.Grid(res.Records)

	for row, line := range grid {
		if row >= height-1 {
			break
		}
		for col, ch := range line {
			if col >= width || ch == display.GlyphEmpty {
				continue
			}
			style, ok := mapStyles[ch]
			if !ok {
				style = tcell.StyleDefault
			}
			screen.SetContent(x+col, y+row, ch, nil, style)
		}
	}

	tview.Print(screen, radar.Legend(), x, y+height-1, width, tview.AlignLeft, tcell.ColorGray)
}
