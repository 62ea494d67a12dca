package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unklstewy/plane-tracker/internal/metrics"
	"github.com/unklstewy/plane-tracker/pkg/config"
	"github.com/unklstewy/plane-tracker/pkg/coordinates"
	"github.com/unklstewy/plane-tracker/pkg/display"
	"github.com/unklstewy/plane-tracker/pkg/opensky"
)

type fakeSource struct {
	resp *opensky.StatesResponse
	err  error
	box  coordinates.BoundingBox
}

func (f *fakeSource) GetStates(ctx context.Context, box coordinates.BoundingBox) (*opensky.StatesResponse, error) {
	f.box = box
	return f.resp, f.err
}

func testServer(src *fakeSource) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(config.DefaultConfig(), src, metrics.New(), logger)
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return rec, body
}

func states(vectors ...string) *opensky.StatesResponse {
	resp := &opensky.StatesResponse{}
	for _, v := range vectors {
		resp.States = append(resp.States, json.RawMessage(v))
	}
	return resp
}

// TestHandleGetAircraft tests the aircraft endpoint.
func TestHandleGetAircraft(t *testing.T) {
	t.Run("Aircraft in range", func(t *testing.T) {
		src := &fakeSource{resp: states(
			`["abc123", "TEST123 ", "US", 0, 0, -74.0, 40.05, 10000, false, 200, 90]`,
			`["def456", "FAR1", "US", 0, 0, -74.0, 41.0, 10000, false, 200, 90]`,
		)}
		rec, body := get(t, testServer(src), "/api/v1/aircraft?lat=40.0&lon=-74.0&radius=10")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["heading"] != display.TableHeading {
			t.Errorf("Expected table heading, got %v", body["heading"])
		}
		rows := body["rows"].([]interface{})
		if len(rows) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(rows))
		}
		if rows[0].([]interface{})[2] != "TEST123" {
			t.Errorf("Expected TEST123, got %v", rows[0])
		}
		deck, ok := body["deck"].(map[string]interface{})
		if !ok {
			t.Fatal("Expected deck in response")
		}
		if deck["mapStyle"] != "mapbox://styles/mapbox/light-v9" {
			t.Errorf("Expected map style, got %v", deck["mapStyle"])
		}
		if src.box.MinLatitude != 39 || src.box.MaxLongitude != -73 {
			t.Errorf("Expected 1 degree box, got %+v", src.box)
		}
	})

	t.Run("No aircraft", func(t *testing.T) {
		src := &fakeSource{resp: &opensky.StatesResponse{}}
		rec, body := get(t, testServer(src), "/api/v1/aircraft?lat=40.0&lon=-74.0")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if body["message"] != display.NoDataMessage {
			t.Errorf("Expected no data message, got %v", body["message"])
		}
		if _, ok := body["deck"]; ok {
			t.Error("Expected no deck when empty")
		}
		if rows := body["rows"].([]interface{}); len(rows) != 0 {
			t.Errorf("Expected empty rows, got %v", rows)
		}
	})

	t.Run("Transport failure", func(t *testing.T) {
		src := &fakeSource{err: &opensky.FetchError{StatusCode: http.StatusServiceUnavailable}}
		rec, body := get(t, testServer(src), "/api/v1/aircraft?lat=40.0&lon=-74.0&radius=10")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		warning, _ := body["warning"].(string)
		if !strings.HasPrefix(warning, "Error fetching aircraft data:") {
			t.Errorf("Expected fetch warning, got %q", warning)
		}
		if body["message"] != display.NoDataMessage {
			t.Errorf("Expected no data message, got %v", body["message"])
		}
	})

	t.Run("Malformed response", func(t *testing.T) {
		src := &fakeSource{err: &opensky.ParseError{Body: []byte("<html>"), Err: errors.New("invalid character '<'")}}
		rec, body := get(t, testServer(src), "/api/v1/aircraft?lat=40.0&lon=-74.0&radius=10")

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("Expected 502, got %d", rec.Code)
		}
		if !strings.Contains(body["error"].(string), "malformed response") {
			t.Errorf("Expected malformed response error, got %v", body["error"])
		}
	})

	for _, path := range []string{
		"/api/v1/aircraft?lat=abc",
		"/api/v1/aircraft?lat=95",
		"/api/v1/aircraft?lon=200",
		"/api/v1/aircraft?radius=0",
		"/api/v1/aircraft?radius=500",
	} {
		t.Run("Bad input "+path, func(t *testing.T) {
			src := &fakeSource{resp: &opensky.StatesResponse{}}
			rec, body := get(t, testServer(src), path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
			if body["error"] == nil {
				t.Error("Expected error message")
			}
		})
	}
}

// TestHandleGetConfig tests the page settings endpoint.
func TestHandleGetConfig(t *testing.T) {
	rec, body := get(t, testServer(&fakeSource{}), "/api/v1/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["min_radius"] != float64(1) || body["max_radius"] != float64(100) {
		t.Errorf("Expected radius bounds 1-100, got %v-%v", body["min_radius"], body["max_radius"])
	}
	defaults := body["defaults"].(map[string]interface{})
	if defaults["radius_miles"] != float64(10) {
		t.Errorf("Expected default radius 10, got %v", defaults["radius_miles"])
	}
}

// TestStaticAndOps tests the map page, health and metrics routes.
func TestStaticAndOps(t *testing.T) {
	s := testServer(&fakeSource{resp: &opensky.StatesResponse{}})

	rec, _ := get(t, s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ScatterplotLayer") {
		t.Errorf("Expected map page, got %d", rec.Code)
	}

	rec, body := get(t, s, "/health")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Expected healthy, got %d %v", rec.Code, body)
	}

	get(t, s, "/api/v1/aircraft?lat=40&lon=-74")
	rec, _ = get(t, s, "/metrics")
	if !strings.Contains(rec.Body.String(), `plane_tracker_query_total{outcome="empty"} 1`) {
		t.Errorf("Expected query metric, got:\n%s", rec.Body.String())
	}

	rec, body = get(t, s, "/api/v1/system/status")
	if rec.Code != http.StatusOK || body["version"] != version {
		t.Errorf("Expected status with version, got %d %v", rec.Code, body)
	}
}
