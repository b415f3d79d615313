// World generation pipeline.
// Stages run one after another over a single grid, each reading attributes
// written by the stages before it. All randomness comes from one seeded
// generator threaded through the run.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/talgya/hexgen/internal/entropy"
	"github.com/talgya/hexgen/internal/telemetry"
)

// ErrNotAdjacent signals corrupted adjacency: an edge was requested between
// tiles that do not touch. It aborts the run.
var ErrNotAdjacent = errors.New("tiles are not adjacent")

// Stage consumes the grid and mutates tile attributes in place.
type Stage interface {
	Name() string
	Apply(g *Grid, run *Run) error
}

// Run carries the per-generation state handed to every stage.
type Run struct {
	Seed   int64
	Rand   *rand.Rand
	Noise  *NoiseField
	Logger *slog.Logger
	Report *Report

	catalog *BiomeCatalog
	missing map[string]*Biome
}

// NewRun prepares run state for seed. A nil logger means slog.Default().
func NewRun(seed int64, cfg GenConfig, logger *slog.Logger) *Run {
	if logger == nil {
		logger = slog.Default()
	}
	return &Run{
		Seed:    seed,
		Rand:    rand.New(rand.NewSource(seed)),
		Noise:   NewNoiseField(seed, cfg.Noise),
		Logger:  logger,
		Report:  newReport(seed),
		catalog: NewBiomeCatalog(cfg.Catalog),
		missing: make(map[string]*Biome),
	}
}

// warn records a non-fatal problem and logs it.
func (r *Run) warn(stage, msg string) {
	r.Report.Warnings = append(r.Report.Warnings, Warning{Stage: stage, Message: msg})
	r.Logger.Warn(msg, "stage", stage)
}

// biome resolves a catalog name. Unknown names get a placeholder record so no
// tile is ever left unclassified; the gap is reported once per name.
func (r *Run) biome(stage, name string) *Biome {
	if b, ok := r.catalog.Lookup(name); ok {
		return b
	}
	if b, ok := r.missing[name]; ok {
		return b
	}
	r.warn(stage, fmt.Sprintf("biome %q not in catalog, using placeholder", name))
	b := &Biome{Name: name}
	if name == "" {
		b.Name = "unclassified"
	}
	r.missing[name] = b
	return b
}

// StageEvent is delivered to Generator.OnStage after each stage completes.
type StageEvent struct {
	Stage   string
	Index   int
	Total   int
	Elapsed time.Duration
	Grid    *Grid
}

// Generator runs a configured pipeline.
type Generator struct {
	Config GenConfig

	// Stages overrides the default pipeline when non-nil.
	Stages []Stage

	Logger  *slog.Logger
	OnStage func(StageEvent)

	// Entropy is consulted only when Config.Seed is RandomSeed.
	Entropy *entropy.Client
}

// Result is a finished world.
type Result struct {
	Grid   *Grid
	Report *Report
	Config GenConfig
}

// DefaultStages returns the standard pipeline for cfg.
//
// Rivers run directly after elevation because they only need elevation
// categories, while moisture (river sources) and vegetation (riverless
// tiles) read river flags.
func DefaultStages(cfg GenConfig) []Stage {
	return []Stage{
		&ElevationStage{Config: cfg.Elevation},
		&RiverStage{Config: cfg.Rivers},
		&MoistureStage{Config: cfg.Moisture},
		&TemperatureStage{Config: cfg.Temperature},
		&BiomeStage{Config: cfg.Biomes},
		&SettlementStage{Config: cfg.Settlements},
		&VegetationStage{Config: cfg.Vegetation},
		&DecorationStage{Config: cfg.Decoration, Bands: cfg.Elevation.Bands},
		&StartingLocationStage{},
	}
}

// Generate creates a complete world from cfg with the default pipeline.
func Generate(ctx context.Context, cfg GenConfig) (*Result, error) {
	gen := &Generator{Config: cfg}
	return gen.Generate(ctx)
}

// Generate builds the grid and runs every stage in order. Cancellation is
// honored between stages.
func (gen *Generator) Generate(ctx context.Context) (*Result, error) {
	cfg := gen.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == RandomSeed {
		seed = entropy.SessionSeed(gen.Entropy)
		cfg.Seed = seed
	}

	tracer := telemetry.Tracer("world")
	ctx, span := tracer.Start(ctx, "world.generate")
	defer span.End()

	run := NewRun(seed, cfg, gen.Logger)
	log := run.Logger

	stages := gen.Stages
	if stages == nil {
		stages = DefaultStages(cfg)
	}

	log.Info("generating world", "width", cfg.Width, "height", cfg.Height, "seed", seed, "stages", len(stages))
	startTime := time.Now()

	g := NewGrid(cfg.Width, cfg.Height)

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			telemetry.Fail(span, err)
			return nil, fmt.Errorf("before stage %s: %w", stage.Name(), err)
		}

		_, stageSpan := tracer.Start(ctx, "stage."+stage.Name())
		stageStart := time.Now()

		err := stage.Apply(g, run)
		elapsed := time.Since(stageStart)
		stageSpan.SetAttributes(attribute.Int64("stage.duration_ms", elapsed.Milliseconds()))
		if err != nil {
			telemetry.Fail(stageSpan, err)
			stageSpan.End()
			telemetry.Fail(span, err)
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		stageSpan.End()

		run.Report.Stages = append(run.Report.Stages, StageTiming{Name: stage.Name(), Elapsed: elapsed})
		log.Debug("stage complete", "stage", stage.Name(), "elapsed", elapsed)

		if gen.OnStage != nil {
			gen.OnStage(StageEvent{Stage: stage.Name(), Index: i, Total: len(stages), Elapsed: elapsed, Grid: g})
		}
	}

	span.SetAttributes(
		attribute.Int("world.width", cfg.Width),
		attribute.Int("world.height", cfg.Height),
		attribute.Int64("world.seed", seed),
		attribute.Int("world.rivers", run.Report.RiversCreated),
		attribute.Int("world.warnings", len(run.Report.Warnings)),
		attribute.Int64("world.generation_ms", time.Since(startTime).Milliseconds()),
	)

	log.Info("world generated",
		"tiles", g.Len(),
		"rivers", run.Report.RiversCreated,
		"settlements", run.Report.SettlementsPlaced(),
		"warnings", len(run.Report.Warnings),
		"elapsed", time.Since(startTime),
	)

	return &Result{Grid: g, Report: run.Report, Config: cfg}, nil
}
