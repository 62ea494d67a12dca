// Plane Tracker TUI
// Shows the aircraft flying within a radius of a location as a table and a
// radar map, refreshed periodically.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/plane-tracker/internal/logging"
	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/display"
	"github.com/unklstewy/plane-tracker/pkg/opensky"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	lat := flag.String("lat", "", "Latitude (overrides config)")
	lon := flag.String("lon", "", "Longitude (overrides config)")
	radius := flag.String("radius", "", "Search radius in miles (overrides config)")
	once := flag.Bool("once", false, "Print one table and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("plane-tracker %s (commit %s)\n", version, commit)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; logs go to a rotated file.
	logger := logging.New(cfg.Logging, "plane-tracker", true)
	defer logger.Close()

	client := opensky.NewClient(opensky.Config{
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout(),
		Logger:  logger.Logger,
	})
	defer client.Close()

	sess := session.New(client, logger.Logger, nil)

	in, err := session.ParseInput(*lat, *lon, *radius, session.DefaultInput(cfg.Query), cfg.Query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid input: %v\n", err)
		os.Exit(2)
	}

	if *once {
		if err := printOnce(os.Stdout, sess, in); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	m := newModel(cfg, sess)
	m.input = in

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printOnce runs one query and writes the result as plain text.
func printOnce(w io.Writer, r runner, in session.Input) error {
	res := r.Run(context.Background(), in)
	if res.Warning != "" {
		fmt.Fprintln(w, res.Warning)
	}
	if res.Err != nil {
		return res.Err
	}
	if len(res.Records) == 0 {
		fmt.Fprintln(w, display.NoDataMessage)
		return nil
	}
	fmt.Fprintln(w, display.TableHeading)
	fmt.Fprintln(w, display.RenderTable(res.Records))
	return nil
}
