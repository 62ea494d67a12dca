package display

import (
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

// ScatterplotLayer is the deck.gl layer type used for aircraft points.
const ScatterplotLayer = "ScatterplotLayer"

// Deck is a deck.gl map description: basemap, initial camera and layers.
type Deck struct {
	MapStyle         string    `json:"mapStyle"`
	InitialViewState ViewState `json:"initialViewState"`
	Layers           []Layer   `json:"layers"`
}

// ViewState is the initial camera, centered on the query location.
type ViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
}

// Layer is one deck.gl layer. GetPosition names the data fields holding
// [longitude, latitude].
type Layer struct {
	Type        string  `json:"type"`
	ID          string  `json:"id"`
	Data        []Point `json:"data"`
	GetPosition string  `json:"getPosition"`
	GetColor    []int   `json:"getColor"`
	GetRadius   float64 `json:"getRadius"`
}

// Point is one layer datum, keyed by the table column names.
type Point struct {
	LAT      float64  `json:"LAT"`
	LON      float64  `json:"LON"`
	Callsign string   `json:"Callsign"`
	Altitude *float64 `json:"Altitude"`
	Speed    *float64 `json:"Speed"`
	Heading  *float64 `json:"Heading"`
}

// NewDeck builds the map for a query at (latitude, longitude).
func NewDeck(latitude, longitude float64, records []tracker.Record, cfg config.DisplayConfig) Deck {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		points = append(points, Point{
			LAT:      r.Latitude,
			LON:      r.Longitude,
			Callsign: r.Callsign,
			Altitude: r.Altitude,
			Speed:    r.Velocity,
			Heading:  r.Heading,
		})
	}

	color := make([]int, len(cfg.PointColor))
	copy(color, cfg.PointColor)

	return Deck{
		MapStyle: cfg.MapStyle,
		InitialViewState: ViewState{
			Latitude:  latitude,
			Longitude: longitude,
			Zoom:      cfg.Zoom,
			Pitch:     cfg.Pitch,
		},
		Layers: []Layer{{
			Type:        ScatterplotLayer,
			ID:          "aircraft",
			Data:        points,
			GetPosition: "[LON, LAT]",
			GetColor:    color,
			GetRadius:   cfg.PointRadius,
		}},
	}
}
