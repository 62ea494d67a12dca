package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/display"
	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

type fakeRunner struct {
	res   session.Result
	err   error
	calls int
	last  session.Input
}

func (f *fakeRunner) TryRun(ctx context.Context, in session.Input) (session.Result, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return session.Result{}, f.err
	}
	res := f.res
	res.Input = in
	return res, nil
}

func newTestApp(r runner) *App {
	cfg := config.DefaultConfig()
	app := NewApp(cfg, r, session.Input{Latitude: 40.0, Longitude: -74.0, RadiusMiles: 10})
	app.draw = func(f func()) { f() }
	return app
}

func lastLog(t *testing.T, app *App) LogMessage {
	t.Helper()
	msgs := app.logs.Messages()
	if len(msgs) == 0 {
		t.Fatal("Expected a log message, got none")
	}
	return msgs[len(msgs)-1]
}

func testRecords() []tracker.Record {
	alt := 10000.0
	return []tracker.Record{
		{Latitude: 40.05, Longitude: -74.0, Callsign: "TEST123", Altitude: &alt},
		{Latitude: 39.95, Longitude: -74.05, Callsign: "NEAR2"},
	}
}

// TestFetch tests how query results reach the table and log panel.
func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Records", func(t *testing.T) {
		r := &fakeRunner{res: session.Result{Records: testRecords(), FetchedAt: time.Now()}}
		app := newTestApp(r)

		app.fetch(ctx)

		if r.calls != 1 {
			t.Fatalf("Expected 1 query, got %d", r.calls)
		}
		if r.last.Latitude != 40.0 || r.last.Longitude != -74.0 || r.last.RadiusMiles != 10 {
			t.Errorf("Unexpected query input: %+v", r.last)
		}
		if got := app.table.GetRowCount(); got != 3 {
			t.Fatalf("Expected header plus 2 rows, got %d", got)
		}
		for col, name := range display.Columns {
			if got := app.table.GetCell(0, col).Text; got != name {
				t.Errorf("Expected header %q, got %q", name, got)
			}
		}
		if got := app.table.GetCell(1, 2).Text; got != "TEST123" {
			t.Errorf("Expected TEST123, got %q", got)
		}
		if got := app.table.GetCell(2, 2).Text; got != "NEAR2" {
			t.Errorf("Expected NEAR2, got %q", got)
		}

		msg := lastLog(t, app)
		if msg.Level != LogLevelInfo || !strings.Contains(msg.Message, "2 aircraft") {
			t.Errorf("Unexpected log message: %+v", msg)
		}
		if !strings.Contains(app.status.GetText(true), "Aircraft: 2") {
			t.Errorf("Expected aircraft count in status, got %q", app.status.GetText(true))
		}
	})

	t.Run("No records", func(t *testing.T) {
		app := newTestApp(&fakeRunner{res: session.Result{Records: []tracker.Record{}}})

		app.fetch(ctx)

		if got := app.table.GetRowCount(); got != 1 {
			t.Fatalf("Expected 1 row, got %d", got)
		}
		if got := app.table.GetCell(0, 0).Text; got != display.NoDataMessage {
			t.Errorf("Expected no data message, got %q", got)
		}
	})

	t.Run("Transport warning", func(t *testing.T) {
		warning := "Error fetching aircraft data: HTTP 503"
		app := newTestApp(&fakeRunner{res: session.Result{Records: []tracker.Record{}, Warning: warning}})

		app.fetch(ctx)

		msg := lastLog(t, app)
		if msg.Level != LogLevelWarn || msg.Message != warning {
			t.Errorf("Expected warning %q, got %+v", warning, msg)
		}
		if !strings.Contains(app.status.GetText(true), warning) {
			t.Errorf("Expected warning in status, got %q", app.status.GetText(true))
		}
	})

	t.Run("Malformed response", func(t *testing.T) {
		app := newTestApp(&fakeRunner{res: session.Result{Err: errors.New("malformed response: bad json")}})

		app.fetch(ctx)

		msg := lastLog(t, app)
		if msg.Level != LogLevelError {
			t.Errorf("Expected ERROR, got %s", msg.Level)
		}
		if got := app.table.GetCell(0, 0).Text; !strings.Contains(got, "malformed response") {
			t.Errorf("Expected error in table, got %q", got)
		}
	})

	t.Run("Busy", func(t *testing.T) {
		app := newTestApp(&fakeRunner{err: session.ErrBusy})

		app.fetch(ctx)

		if app.result != nil {
			t.Error("Expected no result while busy")
		}
		if msg := lastLog(t, app); msg.Level != LogLevelDebug {
			t.Errorf("Expected DEBUG, got %s", msg.Level)
		}
	})
}

func setField(app *App, label, text string) {
	app.form.GetFormItemByLabel(label).(*tview.InputField).SetText(text)
}

// TestSubmitForm tests form validation and refresh requests.
func TestSubmitForm(t *testing.T) {
	t.Run("Valid input", func(t *testing.T) {
		app := newTestApp(&fakeRunner{})
		setField(app, labelLatitude, "51.5")
		setField(app, labelLongitude, "-0.12")
		setField(app, labelRadius, "25")

		app.submitForm()

		want := session.Input{Latitude: 51.5, Longitude: -0.12, RadiusMiles: 25}
		if app.input != want {
			t.Errorf("Expected input %+v, got %+v", want, app.input)
		}
		if len(app.refresh) != 1 {
			t.Errorf("Expected a pending refresh, got %d", len(app.refresh))
		}
	})

	tests := []struct {
		name  string
		label string
		text  string
	}{
		{"Not a number", labelLatitude, "abc"},
		{"Latitude out of range", labelLatitude, "91"},
		{"Longitude out of range", labelLongitude, "-181"},
		{"Radius above maximum", labelRadius, "500"},
		{"Radius below minimum", labelRadius, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeRunner{})
			before := app.input
			setField(app, tt.label, tt.text)

			app.submitForm()

			if app.input != before {
				t.Errorf("Expected input unchanged, got %+v", app.input)
			}
			if len(app.refresh) != 0 {
				t.Error("Expected no refresh for invalid input")
			}
			if msg := lastLog(t, app); msg.Level != LogLevelError {
				t.Errorf("Expected ERROR, got %s", msg.Level)
			}
		})
	}
}

// TestRequestRefreshMerges tests that queued refreshes collapse into one.
func TestRequestRefreshMerges(t *testing.T) {
	app := newTestApp(&fakeRunner{})
	app.requestRefresh()
	app.requestRefresh()
	app.requestRefresh()

	if len(app.refresh) != 1 {
		t.Errorf("Expected 1 pending refresh, got %d", len(app.refresh))
	}
}

// TestLogManager tests message retention.
func TestLogManager(t *testing.T) {
	lm := NewLogManager(3)
	for i := 0; i < 5; i++ {
		lm.Info("msg %d", i)
	}

	msgs := lm.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Message != "msg 2" || msgs[2].Message != "msg 4" {
		t.Errorf("Expected msg 2..msg 4, got %q..%q", msgs[0].Message, msgs[2].Message)
	}

	lm.Error("disk full")
	if text := lm.textView.GetText(true); !strings.Contains(text, "ERROR disk full") {
		t.Errorf("Expected message in view, got %q", text)
	}
}

func findRune(screen tcell.Screen, want rune) bool {
	w, h := screen.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ch, _, _, _ := screen.GetContent(x, y); ch == want {
				return true
			}
		}
	}
	return false
}

func screenRow(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(ch)
	}
	return b.String()
}

// TestMapViewDraw draws the map onto a simulation screen.
func TestMapViewDraw(t *testing.T) {
	newScreen := func(t *testing.T) tcell.SimulationScreen {
		t.Helper()
		screen := tcell.NewSimulationScreen("UTF-8")
		if err := screen.Init(); err != nil {
			t.Fatalf("Failed to init screen: %v", err)
		}
		screen.SetSize(100, 30)
		t.Cleanup(screen.Fini)
		return screen
	}

	t.Run("Aircraft", func(t *testing.T) {
		r := &fakeRunner{res: session.Result{Records: testRecords()}}
		app := newTestApp(r)
		app.fetch(context.Background())

		screen := newScreen(t)
		app.mapView.SetRect(0, 0, 100, 30)
		app.mapView.Draw(screen)

		if !findRune(screen, display.GlyphAircraft) {
			t.Error("Expected an aircraft glyph on the map")
		}
		if !findRune(screen, display.GlyphCenter) {
			t.Error("Expected the center marker on the map")
		}
	})

	t.Run("Malformed response", func(t *testing.T) {
		app := newTestApp(&fakeRunner{res: session.Result{Err: errors.New("malformed response: bad json")}})
		app.fetch(context.Background())

		screen := newScreen(t)
		app.mapView.SetRect(0, 0, 100, 30)
		app.mapView.Draw(screen)

		var text strings.Builder
		for y := 0; y < 30; y++ {
			text.WriteString(screenRow(screen, y))
		}
		if strings.Contains(text.String(), "No aircraft data") {
			t.Error("Expected the error rather than the no data message")
		}
		if !strings.Contains(text.String(), "malformed response: bad json") {
			t.Error("Expected the error text on the map")
		}
	})

	t.Run("No data", func(t *testing.T) {
		app := newTestApp(&fakeRunner{res: session.Result{Records: []tracker.Record{}}})
		app.fetch(context.Background())

		screen := newScreen(t)
		app.mapView.SetRect(0, 0, 100, 30)
		app.mapView.Draw(screen)

		if findRune(screen, display.GlyphAircraft) {
			t.Error("Expected no aircraft glyph")
		}
		found := false
		for y := 0; y < 30; y++ {
			if strings.Contains(screenRow(screen, y), "No aircraft data") {
				found = true
				break
			}
		}
		if !found {
			t.Error("Expected the no data message on the map")
		}
	})
}

// TestStatusText tests the status panel text.
func TestStatusText(t *testing.T) {
	in := session.Input{Latitude: 40, Longitude: -74, RadiusMiles: 10}

	manual := statusText(in, nil, 0)
	if !strings.Contains(manual, "manual") {
		t.Errorf("Expected manual refresh, got %q", manual)
	}

	res := &session.Result{Records: testRecords(), FetchedAt: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)}
	text := statusText(in, res, 15*time.Second)
	for _, want := range []string{"every 15s", "Aircraft:[-] 2", "12:30:00", fmt.Sprintf("%.4f", 40.0)} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in status, got %q", want, text)
		}
	}
}
