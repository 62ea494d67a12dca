package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

// Radar glyphs.
const (
	GlyphEmpty    = ' '
	GlyphRing     = '·'
	GlyphCenter   = '+'
	GlyphAircraft = '✈'
	GlyphVector   = '-'
	GlyphArrow    = '→'
)

// aspectRatio corrects for terminal cells being about twice as tall as wide.
const aspectRatio = 0.5

// Radar projects aircraft around a center onto a character grid. North is up.
type Radar struct {
	Center      coordinates.Geographic
	RadiusMiles float64
	Width       int
	Height      int
}

// NewRadar creates a radar at least 20x10 cells.
func NewRadar(center coordinates.Geographic, radiusMiles float64, width, height int) Radar {
	if width < 20 {
		width = 20
	}
	if height < 10 {
		height = 10
	}
	return Radar{Center: center, RadiusMiles: radiusMiles, Width: width, Height: height}
}

func (r Radar) center() (int, int) {
	return r.Width / 2, r.Height / 2
}

// scale returns cells per mile along the Y axis.
func (r Radar) scale() float64 {
	maxY := float64(r.Height/2 - 1)
	maxX := float64(r.Width/2-1) * aspectRatio
	maxR := math.Min(maxX, maxY)
	if r.RadiusMiles <= 0 {
		return 0
	}
	return maxR / r.RadiusMiles
}

// Project converts a position to grid coordinates. ok is false when the
// position is beyond the radius or off the grid.
func (r Radar) Project(lat, lon float64) (x, y int, ok bool) {
	pos := coordinates.Geographic{Latitude: lat, Longitude: lon}
	dist := coordinates.Distance(r.Center, pos)
	if dist > r.RadiusMiles || math.IsNaN(dist) {
		return 0, 0, false
	}

	bearing := coordinates.Bearing(r.Center, pos) * coordinates.DegreesToRadians
	screenDist := dist * r.scale()

	cx, cy := r.center()
	x = cx + int(math.Round(screenDist*math.Sin(bearing)/aspectRatio))
	y = cy - int(math.Round(screenDist*math.Cos(bearing)))

	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return 0, 0, false
	}
	return x, y, true
}

// Grid draws range rings, cardinal points, the center and each aircraft with
// a short heading vector. Rows are indexed [y][x].
func (r Radar) Grid(records []tracker.Record) [][]rune {
	grid := make([][]rune, r.Height)
	for i := range grid {
		grid[i] = make([]rune, r.Width)
		for j := range grid[i] {
			grid[i][j] = GlyphEmpty
		}
	}

	cx, cy := r.center()
	scale := r.scale()

	for _, frac := range []float64{0.5, 1.0} {
		drawRing(grid, cx, cy, r.RadiusMiles*frac*scale)
	}

	outer := r.RadiusMiles * scale
	set(grid, cx, cy-int(outer), 'N')
	set(grid, cx, cy+int(outer), 'S')
	set(grid, cx+int(outer/aspectRatio), cy, 'E')
	set(grid, cx-int(outer/aspectRatio), cy, 'W')

	grid[cy][cx] = GlyphCenter

	for _, rec := range records {
		x, y, ok := r.Project(rec.Latitude, rec.Longitude)
		if !ok {
			continue
		}
		if rec.Heading != nil {
			drawVector(grid, x, y, *rec.Heading)
		}
		grid[y][x] = GlyphAircraft
	}

	return grid
}

// Legend describes the radar scale.
func (r Radar) Legend() string {
	return fmt.Sprintf("rings %.0f / %.0f mi  center %.4f, %.4f",
		r.RadiusMiles/2, r.RadiusMiles, r.Center.Latitude, r.Center.Longitude)
}

var (
	radarBorder   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	radarRing     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	radarCardinal = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	radarCenter   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	radarAircraft = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	radarVector   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// Render draws the grid in a border with lipgloss colors.
func (r Radar) Render(records []tracker.Record) string {
	grid := r.Grid(records)

	var b strings.Builder
	b.WriteString(radarBorder.Render("┌" + strings.Repeat("─", r.Width) + "┐"))
	b.WriteString("\n")
	for _, row := range grid {
		b.WriteString(radarBorder.Render("│"))
		for _, ch := range row {
			switch ch {
			case GlyphRing:
				b.WriteString(radarRing.Render(string(ch)))
			case 'N', 'E', 'S', 'W':
				b.WriteString(radarCardinal.Render(string(ch)))
			case GlyphCenter:
				b.WriteString(radarCenter.Render(string(ch)))
			case GlyphAircraft:
				b.WriteString(radarAircraft.Render(string(ch)))
			case GlyphVector, GlyphArrow:
				b.WriteString(radarVector.Render(string(ch)))
			default:
				b.WriteRune(ch)
			}
		}
		b.WriteString(radarBorder.Render("│"))
		b.WriteString("\n")
	}
	b.WriteString(radarBorder.Render("└" + strings.Repeat("─", r.Width) + "┘"))
	return b.String()
}

// drawRing plots a circle of radius (Y cells) around cx, cy.
func drawRing(grid [][]rune, cx, cy int, radius float64) {
	if radius < 1 {
		return
	}
	steps := int(radius*8) + 16
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(radius*math.Sin(theta)/aspectRatio))
		y := cy - int(math.Round(radius*math.Cos(theta)))
		set(grid, x, y, GlyphRing)
	}
}

// drawVector draws a two-cell heading tick ahead of an aircraft.
func drawVector(grid [][]rune, x, y int, headingDeg float64) {
	rad := headingDeg * coordinates.DegreesToRadians
	const length = 2
	for i := 1; i <= length; i++ {
		nx := x + int(math.Round(float64(i)*math.Sin(rad)/aspectRatio))
		ny := y - int(math.Round(float64(i)*math.Cos(rad)))
		glyph := GlyphVector
		if i == length {
			glyph = GlyphArrow
		}
		set(grid, nx, ny, glyph)
	}
}

// set writes ch if (x, y) is on the grid and the cell holds background.
func set(grid [][]rune, x, y int, ch rune) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	if grid[y][x] == GlyphEmpty || grid[y][x] == GlyphRing {
		grid[y][x] = ch
	}
}
