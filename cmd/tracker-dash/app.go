package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/display"
)

// runner executes one aircraft query unless another is in flight.
// *session.Session implements it.
type runner interface {
	TryRun(ctx context.Context, in session.Input) (session.Result, error)
}

// Form field labels
const (
	labelLatitude  = "Latitude"
	labelLongitude = "Longitude"
	labelRadius    = "Radius (mi)"
)

// App is the dashboard application.
type App struct {
	cfg    *config.Config
	runner runner

	tviewApp *tview.Application
	root     tview.Primitive

	// UI components
	header  *tview.TextView
	form    *tview.Form
	status  *tview.TextView
	table   *tview.Table
	mapView *MapView
	logs    *LogManager

	// State
	mu     sync.RWMutex
	input  session.Input
	result *session.Result

	// draw runs f on the UI goroutine and redraws
	draw func(f func())

	refresh  chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewApp creates the dashboard with its initial query input.
func NewApp(cfg *config.Config, r runner, in session.Input) *App {
	app := &App{
		cfg:      cfg,
		runner:   r,
		tviewApp: tview.NewApplication(),
		input:    in,
		refresh:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	app.draw = func(f func()) {
		app.tviewApp.QueueUpdateDraw(f)
	}

	app.setupUI()
	return app
}

func (a *App) setupUI() {
	a.header = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	fmt.Fprintf(a.header, "[::b]%s[::-]\n%s", display.Title, display.Tagline)

	a.form = a.createForm()
	a.status = tview.NewTextView().SetDynamicColors(true)
	a.status.SetBorder(true).SetTitle(" Status ")

	a.table = tview.NewTable().SetFixed(1, 0)
	a.table.SetBorder(true).SetTitle(" Aircraft ")

	a.mapView = NewMapView(a)
	a.logs = NewLogManager(200)

	sidebar := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 4, 0, false).
		AddItem(a.form, 11, 0, true).
		AddItem(a.status, 0, 1, false)

	content := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.table, 0, 2, false).
		AddItem(a.mapView, 0, 3, false).
		AddItem(a.logs.View(), 8, 0, false)

	a.root = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(sidebar, 40, 0, true).
		AddItem(content, 0, 1, false)

	a.tviewApp.SetInputCapture(a.handleKeyboard)

	a.render()
}

func (a *App) createForm() *tview.Form {
	format := func(v float64) string { return fmt.Sprintf("%g", v) }

	form := tview.NewForm().
		AddInputField(labelLatitude, format(a.input.Latitude), 12, tview.InputFieldFloat, nil).
		AddInputField(labelLongitude, format(a.input.Longitude), 12, tview.InputFieldFloat, nil).
		AddInputField(labelRadius, format(a.input.RadiusMiles), 6, tview.InputFieldFloat, nil).
		AddButton("Search", a.submitForm)
	form.SetBorder(true).SetTitle(" Location ")
	return form
}

func (a *App) fieldText(label string) string {
	if field, ok := a.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}

// submitForm validates the form and requests a query for the new input.
func (a *App) submitForm() {
	a.mu.RLock()
	base := a.input
	a.mu.RUnlock()

	in, err := session.ParseInput(
		a.fieldText(labelLatitude),
		a.fieldText(labelLongitude),
		a.fieldText(labelRadius),
		base, a.cfg.Query)
	if err != nil {
		a.logs.Error("Invalid input: %v", err)
		return
	}

	a.mu.Lock()
	a.input = in
	a.mu.Unlock()

	a.logs.Info("Searching %.4f, %.4f within %g mi", in.Latitude, in.Longitude, in.RadiusMiles)
	a.requestRefresh()
}

// requestRefresh queues a query without blocking. Requests made while one is
// already queued are merged.
func (a *App) requestRefresh() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyF5, tcell.KeyCtrlR:
		a.requestRefresh()
		return nil
	case tcell.KeyCtrlQ:
		a.Stop()
		return nil
	case tcell.KeyEscape:
		a.tviewApp.SetFocus(a.form)
		return nil
	}
	return event
}

// Run starts the refresh loop and blocks until the UI exits.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.updateLoop(ctx)
	a.requestRefresh()

	a.logs.Info("%s started", display.Title)
	if err := a.tviewApp.SetRoot(a.root, true).EnableMouse(true).Run(); err != nil {
		return err
	}
	a.Stop()
	return nil
}

// Stop stops the refresh loop and the UI.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
		a.tviewApp.Stop()
	})
}

// updateLoop runs queries on the refresh interval and on request.
func (a *App) updateLoop(ctx context.Context) {
	var tick <-chan time.Time
	if interval := a.cfg.Query.RefreshInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			a.fetch(ctx)
		case <-a.refresh:
			a.fetch(ctx)
		case <-a.stopChan:
			return
		}
	}
}

// fetch runs one query and publishes its result to the UI.
func (a *App) fetch(ctx context.Context) {
	a.mu.RLock()
	in := a.input
	a.mu.RUnlock()

	res, err := a.runner.TryRun(ctx, in)
	if errors.Is(err, session.ErrBusy) {
		a.draw(func() { a.logs.Debug("Query already in progress") })
		return
	}

	a.mu.Lock()
	a.result = &res
	a.mu.Unlock()

	a.draw(func() {
		switch {
		case res.Err != nil:
			a.logs.Error("Query failed: %v", res.Err)
		case res.Warning != "":
			a.logs.Warn("%s", res.Warning)
		default:
			a.logs.Info("%d aircraft within %g mi", len(res.Records), res.Input.RadiusMiles)
		}
		a.render()
	})
}

// render refreshes the table and status panel from the current state.
// Must run on the UI goroutine.
func (a *App) render() {
	a.mu.RLock()
	in := a.input
	res := a.result
	a.mu.RUnlock()

	fillTable(a.table, res)
	a.status.SetText(statusText(in, res, a.cfg.Query.RefreshInterval()))
}

// fillTable writes res into table: a header and one row per record, or a
// single message when there is nothing to show.
func fillTable(table *tview.Table, res *session.Result) {
	table.Clear()

	switch {
	case res == nil:
		table.SetCell(0, 0, tview.NewTableCell("Waiting for first query...").
			SetTextColor(tcell.ColorGray).SetSelectable(false))
		return
	case res.Err != nil:
		table.SetCell(0, 0, tview.NewTableCell(res.Err.Error()).
			SetTextColor(tcell.ColorRed).SetSelectable(false))
		return
	case len(res.Records) == 0:
		table.SetCell(0, 0, tview.NewTableCell(display.NoDataMessage).
			SetTextColor(tcell.ColorYellow).SetSelectable(false))
		return
	}

	for col, name := range display.Columns {
		table.SetCell(0, col, tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1))
	}
	for row, cells := range display.Rows(res.Records) {
		for col, text := range cells {
			align := tview.AlignRight
			if display.Columns[col] == "Callsign" {
				align = tview.AlignLeft
			}
			table.SetCell(row+1, col, tview.NewTableCell(text).SetAlign(align).SetExpansion(1))
		}
	}
}

func statusText(in session.Input, res *session.Result, interval time.Duration) string {
	text := fmt.Sprintf("[yellow]Location:[-] %.4f, %.4f\n[yellow]Radius:[-]   %g mi\n", in.Latitude, in.Longitude, in.RadiusMiles)

	if interval > 0 {
		text += fmt.Sprintf("[yellow]Refresh:[-]  every %s\n", interval)
	} else {
		text += "[yellow]Refresh:[-]  manual (F5)\n"
	}

	if res != nil {
		text += fmt.Sprintf("[yellow]Aircraft:[-] %d\n[yellow]Updated:[-]  %s (%s)\n",
			len(res.Records), res.FetchedAt.Format("15:04:05"), res.Duration.Round(time.Millisecond))
		if res.Warning != "" {
			text += fmt.Sprintf("\n[orange]%s[-]\n", tview.Escape(res.Warning))
		}
	}

	text += "\n[gray]Tab: next field  F5: refresh\nEsc: form  Ctrl+Q: quit[-]"
	return text
}
