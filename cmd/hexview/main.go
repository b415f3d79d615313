// Command hexview previews a world in the terminal. It shows the latest
// stored world, or generates one when no database is available.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/talgya/hexgen/internal/entropy"
	"github.com/talgya/hexgen/internal/persistence"
	"github.com/talgya/hexgen/internal/ui"
	"github.com/talgya/hexgen/internal/world"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}

	ctx := context.Background()

	g, seed, err := loadWorld(ctx)
	if err != nil {
		log.Fatalf("Failed to load world: %v", err)
	}

	screen, err := ui.NewScreen()
	if err != nil {
		log.Fatalf("Failed to initialize screen: %v", err)
	}
	defer screen.Close()

	renderer := ui.NewRenderer(screen)
	renderer.Render(g, ui.Legend(g, seed))

	for {
		in := screen.NextInput()
		switch in.Action {
		case ui.ActionQuit:
			return
		case ui.ActionPan:
			renderer.Pan(g, in.DCol, in.DRow)
		case ui.ActionRegenerate:
			cfg := world.DefaultGenConfig()
			cfg.Seed = entropy.CryptoSeed()
			res, err := generate(ctx, cfg)
			if err != nil {
				renderer.RenderMessage(fmt.Sprintf("generation failed: %v", err), 0)
				screen.Show()
				continue
			}
			g, seed = res.Grid, res.Config.Seed
		case ui.ActionNone:
			continue
		}
		renderer.Render(g, ui.Legend(g, seed))
	}
}

// loadWorld reads HEXGEN_WORLD (or the latest stored world) from HEXGEN_DB.
// Without a stored world it generates one from HEXGEN_SEED.
func loadWorld(ctx context.Context) (*world.Grid, int64, error) {
	if path := os.Getenv("HEXGEN_DB"); path != "" && path != "none" {
		db, err := persistence.Open(path)
		if err != nil {
			return nil, 0, err
		}
		defer db.Close()

		id := os.Getenv("HEXGEN_WORLD")
		if id == "" {
			id, _ = db.GetMeta("latest_world")
		}
		if id != "" {
			g, stored, err := db.LoadWorld(ctx, id)
			if err != nil {
				return nil, 0, err
			}
			return g, stored.Seed, nil
		}
	}

	cfg := world.DefaultGenConfig()
	if v := os.Getenv("HEXGEN_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	res, err := generate(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	return res.Grid, res.Config.Seed, nil
}

// generate runs the pipeline with logging discarded, since log lines would
// draw over the map.
func generate(ctx context.Context, cfg world.GenConfig) (*world.Result, error) {
	gen := &world.Generator{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return gen.Generate(ctx)
}
