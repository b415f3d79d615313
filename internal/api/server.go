// Package api serves a generated world over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/hexgen/internal/entropy"
	"github.com/talgya/hexgen/internal/persistence"
	"github.com/talgya/hexgen/internal/world"
)

// maxRangeRadius bounds /api/v1/range queries.
const maxRangeRadius = 32

// Server serves the current world over HTTP.
type Server struct {
	DB       *persistence.DB // optional; regenerated worlds are saved when set
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// RegenerateLimit caps regenerations per client IP per hour.
	RegenerateLimit int

	mu      sync.RWMutex
	current *world.Result
	worldID string
}

// NewServer creates a server over an already generated world.
func NewServer(res *world.Result, worldID string) *Server {
	return &Server{
		current:         res,
		worldID:         worldID,
		RegenerateLimit: 10,
	}
}

// World returns the world being served and its stored ID, if any.
func (s *Server) World() (*world.Result, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.worldID
}

// SetWorld replaces the served world.
func (s *Server) SetWorld(res *world.Result, worldID string) {
	s.mu.Lock()
	s.current = res
	s.worldID = worldID
	s.mu.Unlock()
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	regenLimiter := NewRateLimiter(s.RegenerateLimit, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/map", s.handleBulkMap)
	mux.HandleFunc("GET /api/v1/map/{col}/{row}", s.handleTileDetail)
	mux.HandleFunc("GET /api/v1/range", s.handleRange)
	mux.HandleFunc("GET /api/v1/rivers", s.handleRivers)
	mux.HandleFunc("GET /api/v1/biomes", s.handleBiomes)

	mux.HandleFunc("POST /api/v1/regenerate", s.adminOnly(RateLimitMiddleware(regenLimiter, s.handleRegenerate)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no HEXGEN_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// tileEntry is the compact tile form used by list endpoints.
type tileEntry struct {
	Col         int     `json:"col"`
	Row         int     `json:"row"`
	Category    string  `json:"category"`
	Biome       string  `json:"biome"`
	Elevation   float64 `json:"elevation"`
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
	Population  int     `json:"population,omitempty"`
	Settlement  string  `json:"settlement,omitempty"`
	River       bool    `json:"river,omitempty"`
	Vegetation  bool    `json:"vegetation,omitempty"`
	Mountain    string  `json:"mountain,omitempty"`
	Start       bool    `json:"start,omitempty"`
}

func newTileEntry(t *world.Tile) tileEntry {
	e := tileEntry{
		Col:         t.Offset.Col,
		Row:         t.Offset.Row,
		Category:    t.Category.String(),
		Biome:       t.BiomeName(),
		Elevation:   t.Elevation,
		Moisture:    t.Moisture,
		Temperature: t.Temperature,
		Population:  t.Population,
		River:       t.HasRiver,
		Vegetation:  t.HasVegetation,
		Start:       t.IsStartingLocation,
	}
	if t.Settlement != world.SettlementNone {
		e.Settlement = t.Settlement.String()
	}
	if t.Mountain != world.MountainNone {
		e.Mountain = t.Mountain.String()
	}
	return e
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, id := s.World()
	g, rep := res.Grid, res.Report

	categories := make(map[string]int)
	for c, n := range g.CategoryCounts() {
		categories[c.String()] = n
	}

	status := map[string]any{
		"world_id":           id,
		"seed":               rep.Seed,
		"width":              g.Width,
		"height":             g.Height,
		"tiles":              g.Len(),
		"categories":         categories,
		"biomes":             g.BiomeCounts(),
		"rivers_requested":   rep.RiversRequested,
		"rivers_created":     rep.RiversCreated,
		"settlements":        rep.Settlements,
		"settlements_placed": rep.SettlementsPlaced(),
		"vegetation_tiles":   rep.VegetationTiles,
		"starting_location":  rep.StartingLocation,
		"shortfall":          rep.Shortfall(),
		"warnings":           rep.Warnings,
	}
	writeJSON(w, status)
}

// handleBulkMap returns every tile for a map renderer.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	res, _ := s.World()
	g := res.Grid

	tiles := make([]tileEntry, 0, g.Len())
	for _, t := range g.Tiles() {
		tiles = append(tiles, newTileEntry(t))
	}

	writeJSON(w, map[string]any{
		"width":       g.Width,
		"height":      g.Height,
		"orientation": res.Config.Orientation.String(),
		"tiles":       tiles,
	})
}

func (s *Server) handleTileDetail(w http.ResponseWriter, r *http.Request) {
	col, err1 := strconv.Atoi(r.PathValue("col"))
	row, err2 := strconv.Atoi(r.PathValue("row"))
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	res, _ := s.World()
	t := res.Grid.At(col, row)
	if t == nil {
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}

	type neighborInfo struct {
		Direction int    `json:"direction"`
		Edge      int    `json:"edge"`
		Col       int    `json:"col"`
		Row       int    `json:"row"`
		Biome     string `json:"biome"`
		River     bool   `json:"river_connected"`
	}
	var neighbors []neighborInfo
	for d := world.DirNE; d <= world.DirNW; d++ {
		n := t.Neighbor(d)
		if n == nil {
			continue
		}
		edge := world.EdgeBetween(t.Offset, n.Offset)
		neighbors = append(neighbors, neighborInfo{
			Direction: int(d),
			Edge:      edge,
			Col:       n.Offset.Col,
			Row:       n.Offset.Row,
			Biome:     n.BiomeName(),
			River:     t.Rivers.Has(edge),
		})
	}

	var river map[string]any
	if pattern, rotation, ok := world.MatchRiverPattern(t.Rivers, world.DefaultRiverPatterns); ok {
		river = map[string]any{
			"pattern":  pattern.Name,
			"rotation": rotation,
			"edges":    t.Rivers.Bools(),
		}
	}

	axial := t.Axial()
	cube := t.Cube()
	result := map[string]any{
		"tile":      t,
		"biome":     t.Biome,
		"axial":     axial,
		"cube":      cube,
		"position":  world.WorldPosition(t.Offset, res.Config.Orientation, math.Sqrt(3), 2),
		"river":     river,
		"neighbors": neighbors,
	}
	writeJSON(w, result)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	col, err1 := strconv.Atoi(q.Get("col"))
	row, err2 := strconv.Atoi(q.Get("row"))
	radius, err3 := strconv.Atoi(q.Get("radius"))
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "usage: /api/v1/range?col=&row=&radius=", http.StatusBadRequest)
		return
	}
	if radius < 0 || radius > maxRangeRadius {
		http.Error(w, fmt.Sprintf("radius must be in [0, %d]", maxRangeRadius), http.StatusBadRequest)
		return
	}

	res, _ := s.World()
	center := res.Grid.At(col, row)
	if center == nil {
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}

	inRange := res.Grid.TilesInRange(center, radius)
	tiles := make([]tileEntry, 0, len(inRange))
	for _, t := range inRange {
		tiles = append(tiles, newTileEntry(t))
	}
	writeJSON(w, map[string]any{
		"center": center.Offset,
		"radius": radius,
		"tiles":  tiles,
	})
}

func (s *Server) handleRivers(w http.ResponseWriter, r *http.Request) {
	res, _ := s.World()
	rivers := res.Report.Rivers
	if rivers == nil {
		rivers = []world.RiverPath{}
	}
	writeJSON(w, map[string]any{
		"requested": res.Report.RiversRequested,
		"created":   res.Report.RiversCreated,
		"rivers":    rivers,
	})
}

// handleBiomes lists the catalog in registration order with tile counts.
// Placeholder biomes created for names missing from the catalog follow,
// sorted by name.
func (s *Server) handleBiomes(w http.ResponseWriter, r *http.Request) {
	res, _ := s.World()
	counts := res.Grid.BiomeCounts()

	type biomeEntry struct {
		*world.Biome
		Tiles int `json:"tiles"`
	}
	biomes := []biomeEntry{}
	for _, b := range world.NewBiomeCatalog(res.Config.Catalog).All() {
		biomes = append(biomes, biomeEntry{Biome: b, Tiles: counts[b.Name]})
		delete(counts, b.Name)
	}
	extra := make([]string, 0, len(counts))
	for name := range counts {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		biomes = append(biomes, biomeEntry{Biome: &world.Biome{Name: name}, Tiles: counts[name]})
	}
	writeJSON(w, map[string]any{"biomes": biomes})
}

// handleRegenerate builds a new world with the current config and a new
// seed. The body may name the seed: {"seed": 1234}.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed *int64 `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	cfg := world.DefaultGenConfig()
	if old, _ := s.World(); old != nil {
		cfg = old.Config
	}
	if req.Seed != nil && *req.Seed >= 0 {
		cfg.Seed = *req.Seed
	} else {
		cfg.Seed = entropy.CryptoSeed()
	}

	start := time.Now()
	res, err := world.Generate(r.Context(), cfg)
	if err != nil {
		slog.Error("regeneration failed", "seed", cfg.Seed, "error", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	id := ""
	if s.DB != nil {
		id, err = s.DB.SaveWorld(r.Context(), res)
		if err != nil {
			slog.Error("saving regenerated world failed", "error", err)
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}
		if err := s.DB.SaveMeta("latest_world", id); err != nil {
			slog.Warn("latest world pointer not updated", "error", err)
		}
	}
	s.SetWorld(res, id)

	slog.Info("world regenerated", "seed", cfg.Seed, "world_id", id, "elapsed", time.Since(start))
	writeJSON(w, map[string]any{
		"world_id":  id,
		"seed":      cfg.Seed,
		"warnings":  len(res.Report.Warnings),
		"shortfall": res.Report.Shortfall(),
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
