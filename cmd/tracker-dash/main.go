// Tracker Dashboard
// A full-screen tview dashboard showing the aircraft near a location as a
// table and a radar map, with an editable location form and a log panel.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unklstewy/plane-tracker/internal/logging"
	"github.com/unklstewy/plane-tracker/internal/session"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/opensky"
)

var (
	// Version information (set by build flags)
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tracker-dash version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging, "tracker-dash", true)
	defer logger.Close()

	client := opensky.NewClient(opensky.Config{
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout(),
		Logger:  logger.Logger,
	})
	defer client.Close()

	sess := session.New(client, logger.Logger, nil)

	app := NewApp(cfg, sess, session.DefaultInput(cfg.Query))
	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func printHelp() {
	fmt.Println(`tracker-dash - aircraft near a location, in the terminal

USAGE:
    tracker-dash [OPTIONS]

OPTIONS:
    -config PATH    Path to configuration file (default: configs/config.json)
    -version        Show version information
    -help           Show this help message

KEYS:
    Tab / Shift+Tab Move between form fields
    Enter           Run the search from the Search button
    F5 / Ctrl+R     Refresh now
    Esc             Focus the location form
    Ctrl+Q          Quit

ENVIRONMENT:
    PLANE_TRACKER_QUERY_DEFAULT_LATITUDE     Initial latitude
    PLANE_TRACKER_QUERY_DEFAULT_LONGITUDE    Initial longitude
    PLANE_TRACKER_QUERY_REFRESH_INTERVAL_SECONDS
                                             Refresh period (0 disables)

Logs are written to the configured logging directory as tracker-dash.log.`)
}
