// Command worldgen generates a hex world, prints a summary, saves it to
// SQLite and optionally serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/hexgen/internal/api"
	"github.com/talgya/hexgen/internal/entropy"
	"github.com/talgya/hexgen/internal/persistence"
	"github.com/talgya/hexgen/internal/telemetry"
	"github.com/talgya/hexgen/internal/world"
)

func main() {
	// Not fatal: env vars might be set directly.
	envErr := godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("HEXGEN_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Debug(".env file not loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if telemetry.Enabled() {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			slog.Warn("telemetry setup failed, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Error("telemetry shutdown failed", "error", err)
				}
			}()
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// ── Generation ───────────────────────────────────────────────────
	gen := &world.Generator{
		Config:  cfg,
		Entropy: entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")),
		OnStage: func(ev world.StageEvent) {
			slog.Info("stage done", "stage", ev.Stage, "step", fmt.Sprintf("%d/%d", ev.Index+1, ev.Total), "elapsed", ev.Elapsed)
		},
	}
	res, err := gen.Generate(ctx)
	if err != nil {
		slog.Error("world generation failed", "error", err)
		os.Exit(1)
	}
	printSummary(res)

	// ── Database ─────────────────────────────────────────────────────
	var db *persistence.DB
	worldID := ""
	if dbPath := envOrDefault("HEXGEN_DB", "data/hexgen.db"); dbPath != "none" {
		if dir := filepath.Dir(dbPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		worldID, err = db.SaveWorld(ctx, res)
		if err != nil {
			slog.Error("failed to save world", "error", err)
			os.Exit(1)
		}
		if err := db.SaveMeta("latest_world", worldID); err != nil {
			slog.Warn("latest world pointer not saved", "error", err)
		}
		slog.Info("world stored", "path", dbPath, "id", worldID)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	port := envIntOrDefault("HEXGEN_PORT", 0)
	if port <= 0 {
		return
	}

	srv := api.NewServer(res, worldID)
	srv.DB = db
	srv.Port = port
	srv.AdminKey = os.Getenv("HEXGEN_ADMIN_KEY")
	srv.RegenerateLimit = envIntOrDefault("HEXGEN_REGENERATE_LIMIT", 10)
	srv.Start()

	<-ctx.Done()
	slog.Info("shutting down")
}

// loadConfig starts from HEXGEN_CONFIG (a JSON file) or the defaults, then
// applies the size and seed overrides.
func loadConfig() (world.GenConfig, error) {
	cfg := world.DefaultGenConfig()
	if path := os.Getenv("HEXGEN_CONFIG"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if cfg, err = world.LoadGenConfig(f); err != nil {
			return cfg, err
		}
	}

	cfg.Width = envIntOrDefault("HEXGEN_WIDTH", cfg.Width)
	cfg.Height = envIntOrDefault("HEXGEN_HEIGHT", cfg.Height)
	cfg.Seed = envInt64OrDefault("HEXGEN_SEED", cfg.Seed)
	return cfg, cfg.Validate()
}

func printSummary(res *world.Result) {
	g, rep := res.Grid, res.Report

	totalPop := 0
	for _, t := range g.Tiles() {
		totalPop += t.Population
	}

	slog.Info("world summary",
		"seed", rep.Seed,
		"size", fmt.Sprintf("%dx%d", g.Width, g.Height),
		"tiles", humanize.Comma(int64(g.Len())),
		"population", humanize.Comma(int64(totalPop)),
		"background_population", humanize.Comma(int64(rep.BackgroundPopulation)),
		"rivers", fmt.Sprintf("%d/%d", rep.RiversCreated, rep.RiversRequested),
		"vegetation", rep.VegetationTiles,
		"warnings", len(rep.Warnings),
	)

	counts := g.BiomeCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		share := float64(counts[name]) / float64(g.Len()) * 100
		slog.Info("biome", "name", name, "tiles", counts[name], "share", humanize.FtoaWithDigits(share, 1)+"%")
	}

	for _, s := range rep.Settlements {
		slog.Info("settlements", "type", s.Type.String(), "placed", s.Placed, "requested", s.Requested)
	}
	for _, t := range g.Tiles() {
		if t.Settlement == world.SettlementCity || t.Settlement == world.SettlementTown {
			slog.Info("notable settlement",
				"name", t.SettlementName,
				"type", t.Settlement.String(),
				"col", t.Offset.Col, "row", t.Offset.Row,
				"population", humanize.Comma(int64(t.Population)),
				"biome", t.BiomeName(),
			)
		}
	}
	if start := g.StartingTile(); start != nil {
		slog.Info("starting location", "col", start.Offset.Col, "row", start.Offset.Row, "biome", start.BiomeName())
	}
	if rep.Shortfall() {
		slog.Warn("generation fell short of the requested settlements or rivers")
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envInt64OrDefault(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}
