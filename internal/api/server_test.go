package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/hexgen/internal/world"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	res, err := world.Generate(context.Background(), world.SmallTestConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	s := NewServer(res, "test-world")
	s.AdminKey = "secret"
	return s, s.Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(t)
	rec := get(t, h, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		WorldID string `json:"world_id"`
		Seed    int64  `json:"seed"`
		Tiles   int    `json:"tiles"`
	}
	decode(t, rec, &body)
	if body.WorldID != "test-world" || body.Seed != 42 || body.Tiles != 100 {
		t.Fatalf("unexpected status %+v", body)
	}
}

func TestBulkMap(t *testing.T) {
	_, h := newTestServer(t)
	rec := get(t, h, "/api/v1/map")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Width int         `json:"width"`
		Tiles []tileEntry `json:"tiles"`
	}
	decode(t, rec, &body)
	if body.Width != 10 || len(body.Tiles) != 100 {
		t.Fatalf("width %d, %d tiles", body.Width, len(body.Tiles))
	}
	for _, e := range body.Tiles {
		if e.Biome == "" {
			t.Fatalf("tile %d,%d has no biome", e.Col, e.Row)
		}
	}
}

func TestTileDetail(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/api/v1/map/4/5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Axial     world.HexCoord `json:"axial"`
		Neighbors []struct {
			Col int `json:"col"`
			Row int `json:"row"`
		} `json:"neighbors"`
	}
	decode(t, rec, &body)
	if len(body.Neighbors) != 6 {
		t.Fatalf("interior tile has %d neighbors", len(body.Neighbors))
	}
	if want := world.OffsetToAxial(world.OffsetCoord{Col: 4, Row: 5}); body.Axial != want {
		t.Fatalf("axial = %+v, want %+v", body.Axial, want)
	}

	if rec := get(t, h, "/api/v1/map/40/5"); rec.Code != http.StatusNotFound {
		t.Fatalf("out of bounds tile: code %d, want 404", rec.Code)
	}
	if rec := get(t, h, "/api/v1/map/x/5"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad coordinate: code %d, want 400", rec.Code)
	}
}

func TestRange(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/api/v1/range?col=5&row=5&radius=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Tiles []tileEntry `json:"tiles"`
	}
	decode(t, rec, &body)
	if len(body.Tiles) != 7 {
		t.Fatalf("radius 1 returned %d tiles, want 7", len(body.Tiles))
	}

	if rec := get(t, h, "/api/v1/range?col=5&row=5&radius=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative radius: code %d, want 400", rec.Code)
	}
}

func TestRivers(t *testing.T) {
	s, h := newTestServer(t)
	rec := get(t, h, "/api/v1/rivers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Created int               `json:"created"`
		Rivers  []world.RiverPath `json:"rivers"`
	}
	decode(t, rec, &body)
	res, _ := s.World()
	if body.Created != res.Report.RiversCreated || len(body.Rivers) != body.Created {
		t.Fatalf("created %d, listed %d, report %d", body.Created, len(body.Rivers), res.Report.RiversCreated)
	}
}

func TestBiomes(t *testing.T) {
	s, h := newTestServer(t)
	rec := get(t, h, "/api/v1/biomes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Biomes []struct {
			Name  string `json:"name"`
			Tiles int    `json:"tiles"`
		} `json:"biomes"`
	}
	decode(t, rec, &body)

	res, _ := s.World()
	catalog := res.Config.Catalog
	if len(body.Biomes) < len(catalog) {
		t.Fatalf("%d biomes listed, catalog has %d", len(body.Biomes), len(catalog))
	}
	total := 0
	for i, b := range body.Biomes {
		if i < len(catalog) && b.Name != catalog[i].Name {
			t.Errorf("biome %d = %q, want catalog order %q", i, b.Name, catalog[i].Name)
		}
		total += b.Tiles
	}
	if total != res.Grid.Len() {
		t.Errorf("biome tiles sum to %d, want %d", total, res.Grid.Len())
	}
}

func TestRegenerateRequiresAuth(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regenerate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}

	s := NewServer(nil, "")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/regenerate", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no admin key: code = %d, want 403", rec.Code)
	}
}

func TestRegenerateWithSeed(t *testing.T) {
	s, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regenerate", strings.NewReader(`{"seed": 7}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}

	res, _ := s.World()
	if res.Report.Seed != 7 || res.Config.Seed != 7 {
		t.Fatalf("served world seed = %d, want 7", res.Report.Seed)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other IPs have their own bucket")
	}
	if got := rl.RetryAfter("1.2.3.4"); got != 3601 {
		t.Fatalf("retry after = %d, want 3601", got)
	}

	now = now.Add(time.Hour)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window reset should allow again")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("clientIP with XFF = %q", got)
	}
}
