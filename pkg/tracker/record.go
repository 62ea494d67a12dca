package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Positions inside an OpenSky state vector (0-indexed).
const (
	posCallsign  = 1
	posLongitude = 5
	posLatitude  = 6
	posAltitude  = 7
	posVelocity  = 9
	posHeading   = 10
)

// MinStateVectorFields is the minimum arity of a usable state vector.
const MinStateVectorFields = 11

// Record is one aircraft that passed the radius filter.
// Nil pointer fields mean the provider reported null.
type Record struct {
	// Latitude in decimal degrees
	Latitude float64 `json:"lat"`

	// Longitude in decimal degrees
	Longitude float64 `json:"lon"`

	// Callsign with the provider's space padding removed; empty when unknown
	Callsign string `json:"callsign"`

	// Altitude is the barometric altitude in meters
	Altitude *float64 `json:"altitude"`

	// Velocity is the ground speed in m/s
	Velocity *float64 `json:"speed"`

	// Heading is the true track in degrees clockwise from north
	Heading *float64 `json:"heading"`
}

// DecodeStateVector decodes one raw state vector into a Record.
//
// It fails with a MalformedRecord *Error when the entry is not a JSON array,
// has fewer than MinStateVectorFields elements, lacks a numeric position, or
// carries a non-numeric altitude, velocity or heading. A callsign that is not a
// string is kept in its printed form.
func DecodeStateVector(raw json.RawMessage) (Record, error) {
	var fields []any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, recordError("state vector is not an array: %v", err)
	}
	if len(fields) < MinStateVectorFields {
		return Record{}, recordError("state vector has %d fields, need at least %d", len(fields), MinStateVectorFields)
	}

	var rec Record
	var ok bool

	switch cs := fields[posCallsign].(type) {
	case nil:
	case string:
		rec.Callsign = strings.TrimSpace(cs)
	default:
		rec.Callsign = fmt.Sprint(cs)
	}

	if rec.Longitude, ok = fields[posLongitude].(float64); !ok {
		return Record{}, recordError("longitude is %v", fields[posLongitude])
	}
	if rec.Latitude, ok = fields[posLatitude].(float64); !ok {
		return Record{}, recordError("latitude is %v", fields[posLatitude])
	}

	optional := []struct {
		pos  int
		name string
		dst  **float64
	}{
		{posAltitude, "altitude", &rec.Altitude},
		{posVelocity, "velocity", &rec.Velocity},
		{posHeading, "heading", &rec.Heading},
	}
	for _, o := range optional {
		switch v := fields[o.pos].(type) {
		case nil:
		case float64:
			*o.dst = &v
		default:
			return Record{}, recordError("%s has type %T", o.name, v)
		}
	}

	return rec, nil
}
