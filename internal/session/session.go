// Package session holds the inputs a host collects from its user and runs
// aircraft queries for them one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/unklstewy/plane-tracker/internal/metrics"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/tracker"
)

// ErrBusy is returned by TryRun while another query is in flight.
var ErrBusy = errors.New("a query is already in progress")

// Input is one set of query parameters.
type Input struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RadiusMiles float64 `json:"radius_miles"`
}

// DefaultInput returns the configured starting inputs.
func DefaultInput(q config.QueryConfig) Input {
	return Input{
		Latitude:    q.DefaultLatitude,
		Longitude:   q.DefaultLongitude,
		RadiusMiles: q.DefaultRadiusMiles,
	}
}

// Validate rejects coordinates outside the valid ranges and radii outside
// the configured bounds.
func (in Input) Validate(q config.QueryConfig) error {
	var errs []string
	if !coordinates.ValidLatitude(in.Latitude) {
		errs = append(errs, fmt.Sprintf("latitude must be between -90 and 90, got %g", in.Latitude))
	}
	if !coordinates.ValidLongitude(in.Longitude) {
		errs = append(errs, fmt.Sprintf("longitude must be between -180 and 180, got %g", in.Longitude))
	}
	if in.RadiusMiles < q.MinRadiusMiles || in.RadiusMiles > q.MaxRadiusMiles {
		errs = append(errs, fmt.Sprintf("radius must be between %g and %g miles, got %g",
			q.MinRadiusMiles, q.MaxRadiusMiles, in.RadiusMiles))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ParseInput parses user-entered text. Blank fields keep the value from base.
func ParseInput(lat, lon, radius string, base Input, q config.QueryConfig) (Input, error) {
	in := base
	fields := []struct {
		name string
		text string
		dst  *float64
	}{
		{"latitude", lat, &in.Latitude},
		{"longitude", lon, &in.Longitude},
		{"radius", radius, &in.RadiusMiles},
	}
	for _, f := range fields {
		text := strings.TrimSpace(f.text)
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return base, fmt.Errorf("invalid %s %q", f.name, text)
		}
		*f.dst = v
	}
	if err := in.Validate(q); err != nil {
		return base, err
	}
	return in, nil
}

// Result is the outcome of one query.
type Result struct {
	Input     Input
	Records   []tracker.Record
	Warning   string
	Err       error
	Outcome   string
	Duration  time.Duration
	FetchedAt time.Time
}

// Session runs queries serially. It is the Notifier of its tracker.Query and
// attaches the warning raised during a run to that run's Result.
type Session struct {
	mu      sync.Mutex
	query   *tracker.Query
	metrics *metrics.Metrics
	logger  *slog.Logger
	warning string
}

// New creates a session reading from source. m may be nil.
func New(source tracker.StateSource, logger *slog.Logger, m *metrics.Metrics) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{metrics: m, logger: logger}
	s.query = tracker.NewQuery(source, s, logger)
	return s
}

// Warn records a transport warning for the query in progress.
func (s *Session) Warn(msg string) {
	s.warning = msg
}

// Run executes one query, waiting for any query already in flight.
func (s *Session) Run(ctx context.Context, in Input) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, in)
}

// TryRun executes one query unless another is in flight, in which case it
// returns ErrBusy.
func (s *Session) TryRun(ctx context.Context, in Input) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrBusy
	}
	defer s.mu.Unlock()
	return s.run(ctx, in), nil
}

func (s *Session) run(ctx context.Context, in Input) Result {
	s.warning = ""
	start := time.Now()

	records, err := s.query.Aircraft(ctx, in.Latitude, in.Longitude, in.RadiusMiles)

	res := Result{
		Input:     in,
		Records:   records,
		Warning:   s.warning,
		Err:       err,
		Duration:  time.Since(start),
		FetchedAt: time.Now(),
	}

	switch {
	case err != nil:
		res.Outcome = metrics.OutcomeMalformedResponse
	case res.Warning != "":
		res.Outcome = metrics.OutcomeTransportFailure
	case len(records) == 0:
		res.Outcome = metrics.OutcomeEmpty
	default:
		res.Outcome = metrics.OutcomeOK
	}

	if s.metrics != nil {
		s.metrics.ObserveQuery(res.Outcome, res.Duration, len(records))
	}

	s.logger.Info("aircraft query",
		slog.Float64("latitude", in.Latitude),
		slog.Float64("longitude", in.Longitude),
		slog.Float64("radius_miles", in.RadiusMiles),
		slog.String("outcome", res.Outcome),
		slog.Int("aircraft", len(records)),
		slog.Duration("duration", res.Duration))

	return res
}
