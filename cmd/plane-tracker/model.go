package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/display"
)

// runner executes one aircraft query. *session.Session implements it.
type runner interface {
	Run(ctx context.Context, in session.Input) session.Result
}

// Input modes
const (
	inputNone      = ""
	inputLatitude  = "latitude"
	inputLongitude = "longitude"
	inputRadius    = "radius"
)

type model struct {
	cfg    *config.Config
	runner runner

	input    session.Input
	result   *session.Result
	fetching bool
	err      error

	inputMode   string
	inputBuffer string

	showRadar bool
	width     int
	height    int
}

type tickMsg time.Time

type resultMsg session.Result

func newModel(cfg *config.Config, r runner) model {
	return model{
		cfg:       cfg,
		runner:    r,
		input:     session.DefaultInput(cfg.Query),
		showRadar: true,
		width:     100,
		height:    40,
	}
}

func (m model) tick() tea.Cmd {
	interval := m.cfg.Query.RefreshInterval()
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetch starts a query unless one is already in flight. Input changed during
// a query is picked up when its result arrives.
func (m *model) fetch() tea.Cmd {
	if m.fetching {
		return nil
	}
	m.fetching = true
	r, in := m.runner, m.input
	return func() tea.Msg {
		return resultMsg(r.Run(context.Background(), in))
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tickMsg(time.Now()) },
		m.tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.updateInput(msg)
		}

		// Clear error on any keypress
		if m.err != nil {
			m.err = nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "a":
			m.startInput(inputLatitude, m.input.Latitude)
		case "o":
			m.startInput(inputLongitude, m.input.Longitude)
		case "r":
			m.startInput(inputRadius, m.input.RadiusMiles)
		case "+", "=":
			cmd := m.setRadius(m.input.RadiusMiles + 1)
			return m, cmd
		case "-", "_":
			cmd := m.setRadius(m.input.RadiusMiles - 1)
			return m, cmd
		case "m":
			m.showRadar = !m.showRadar
		case "f", "enter":
			cmd := m.fetch()
			return m, cmd
		}
		return m, nil

	case tickMsg:
		cmd := m.fetch()
		return m, tea.Batch(cmd, m.tick())

	case resultMsg:
		res := session.Result(msg)
		m.result = &res
		m.fetching = false
		// The input changed while this query ran.
		if res.Input != m.input {
			cmd := m.fetch()
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m *model) startInput(mode string, current float64) {
	m.inputMode = mode
	m.inputBuffer = fmt.Sprintf("%g", current)
}

// setRadius changes the radius within the configured bounds and re-queries.
func (m *model) setRadius(r float64) tea.Cmd {
	r = m.cfg.Query.ClampRadius(r)
	if r == m.input.RadiusMiles {
		return nil
	}
	m.input.RadiusMiles = r
	return m.fetch()
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		var lat, lon, radius string
		switch m.inputMode {
		case inputLatitude:
			lat = m.inputBuffer
		case inputLongitude:
			lon = m.inputBuffer
		case inputRadius:
			radius = m.inputBuffer
		}
		m.inputMode = inputNone
		m.inputBuffer = ""

		if strings.TrimSpace(lat+lon+radius) == "" {
			return m, nil
		}
		in, err := session.ParseInput(lat, lon, radius, m.input, m.cfg.Query)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.input = in
		cmd := m.fetch()
		return m, cmd
	case "esc":
		m.inputMode = inputNone
		m.inputBuffer = ""
	case "backspace":
		if len(m.inputBuffer) > 0 {
			m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
		}
	default:
		if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-+eE") {
			m.inputBuffer += s
		}
	}
	return m, nil
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Background(lipgloss.Color("235")).Padding(0, 1)
	taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(display.Title)))
	s.WriteString("  ")
	s.WriteString(taglineStyle.Render(display.Tagline))
	s.WriteString("\n\n")

	if m.inputMode != inputNone {
		prompt := "Enter your current location (latitude):"
		switch m.inputMode {
		case inputLongitude:
			prompt = "Enter your current location (longitude):"
		case inputRadius:
			prompt = fmt.Sprintf("Select the search radius (%g-%g miles):",
				m.cfg.Query.MinRadiusMiles, m.cfg.Query.MaxRadiusMiles)
		}
		s.WriteString(labelStyle.Render(prompt))
		s.WriteString("\n")
		s.WriteString(valueStyle.Render("> " + m.inputBuffer + "_"))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("ENTER: Submit  ESC: Cancel"))
		return s.String()
	}

	if m.err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Press any key to continue..."))
		return s.String()
	}

	s.WriteString(labelStyle.Render("Latitude "))
	s.WriteString(valueStyle.Render(fmt.Sprintf("%.4f", m.input.Latitude)))
	s.WriteString(labelStyle.Render("  Longitude "))
	s.WriteString(valueStyle.Render(fmt.Sprintf("%.4f", m.input.Longitude)))
	s.WriteString(labelStyle.Render("  Radius "))
	s.WriteString(valueStyle.Render(fmt.Sprintf("%g mi", m.input.RadiusMiles)))
	s.WriteString("  ")
	s.WriteString(helpStyle.Render(m.status()))
	s.WriteString("\n\n")

	s.WriteString(m.renderResult())

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("A: Latitude  O: Longitude  R: Radius  +/-: Radius ±1  F: Refresh  M: Map  Q: Quit"))

	return s.String()
}

func (m model) status() string {
	switch {
	case m.fetching:
		return "fetching..."
	case m.result != nil:
		return "updated " + m.result.FetchedAt.Format("15:04:05")
	default:
		return ""
	}
}

func (m model) renderResult() string {
	if m.result == nil {
		return ""
	}
	res := m.result
	var s strings.Builder

	if res.Warning != "" {
		s.WriteString(warnStyle.Render(res.Warning))
		s.WriteString("\n")
	}
	if res.Err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", res.Err)))
		s.WriteString("\n")
		return s.String()
	}
	if len(res.Records) == 0 {
		s.WriteString(warnStyle.Render(display.NoDataMessage))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(labelStyle.Render(display.TableHeading))
	s.WriteString("\n")
	s.WriteString(display.RenderTable(res.Records))
	s.WriteString("\n")

	if m.showRadar {
		center := coordinates.Geographic{Latitude: res.Input.Latitude, Longitude: res.Input.Longitude}
		width := m.width - 4
		height := m.height - len(res.Records) - 14
		radar := display.NewRadar(center, res.Input.RadiusMiles, width, height)
		s.WriteString(radar.Render(res.Records))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render(radar.Legend()))
		s.WriteString("\n")
	}

	return s.String()
}
