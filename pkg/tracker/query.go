// Package tracker implements the distance-filtered aircraft query: fetch the
// state vectors around a location, decode them and keep those within a radius.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/opensky"
)

// BoxMarginDegrees is the fixed half-size of the provider request box on both
// axes. It does not depend on the requested radius.
const BoxMarginDegrees = 1.0

// StateSource is the provider of raw state vectors.
// *opensky.Client implements it.
type StateSource interface {
	GetStates(ctx context.Context, box coordinates.BoundingBox) (*opensky.StatesResponse, error)
}

// Notifier receives user-facing warnings (transport failures).
type Notifier interface {
	Warn(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Warn calls f(msg).
func (f NotifierFunc) Warn(msg string) { f(msg) }

// Query runs aircraft queries against a StateSource. It holds no per-query
// state; every call is an independent request/decode/filter cycle.
type Query struct {
	source   StateSource
	notifier Notifier
	logger   *slog.Logger
}

// NewQuery creates a Query. A nil notifier discards warnings; a nil logger
// uses slog.Default().
func NewQuery(source StateSource, notifier Notifier, logger *slog.Logger) *Query {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Query{
		source:   source,
		notifier: notifier,
		logger:   logger,
	}
}

// Aircraft returns the aircraft within radiusMiles of (latitude, longitude),
// in provider order.
//
// A transport failure is reported through the Notifier and yields an empty
// result with a nil error. A malformed provider body yields a
// MalformedResponse *Error. Zero matches is an empty, non-nil slice.
func (q *Query) Aircraft(ctx context.Context, latitude, longitude, radiusMiles float64) ([]Record, error) {
	box := coordinates.BoxAround(latitude, longitude, BoxMarginDegrees)

	resp, err := q.source.GetStates(ctx, box)
	if err != nil {
		if pe, ok := opensky.IsParseError(err); ok {
			q.logger.Error("provider returned an unparseable body",
				slog.String("error", pe.Err.Error()),
				slog.String("body", string(pe.Body)))
			return nil, &Error{Kind: MalformedResponse, Err: err}
		}

		q.logger.Warn("aircraft fetch failed", slog.String("error", err.Error()))
		q.notifier.Warn(fmt.Sprintf("Error fetching aircraft data: %v", err))
		return []Record{}, nil
	}

	records := FilterStates(resp.States, latitude, longitude, radiusMiles)
	q.logger.Debug("aircraft query complete",
		slog.Int("candidates", len(resp.States)),
		slog.Int("matched", len(records)))

	return records, nil
}

// FilterStates decodes each raw state vector and keeps those whose position
// is within radiusMiles of (latitude, longitude). Undecodable vectors are
// skipped. Order is preserved.
func FilterStates(states []json.RawMessage, latitude, longitude, radiusMiles float64) []Record {
	records := make([]Record, 0, len(states))
	for _, raw := range states {
		rec, err := DecodeStateVector(raw)
		if err != nil {
			continue
		}
		if coordinates.DistanceMiles(latitude, longitude, rec.Latitude, rec.Longitude) <= radiusMiles {
			records = append(records, rec)
		}
	}
	return records
}
