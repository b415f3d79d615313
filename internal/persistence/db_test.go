package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/hexgen/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "worlds.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func generate(t *testing.T) *world.Result {
	t.Helper()
	res, err := world.Generate(context.Background(), world.SmallTestConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return res
}

func TestSaveLoadWorld(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	res := generate(t)

	id, err := db.SaveWorld(ctx, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	g, stored, err := db.LoadWorld(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Seed != res.Config.Seed {
		t.Errorf("seed = %d, want %d", stored.Seed, res.Config.Seed)
	}
	if g.Width != res.Grid.Width || g.Height != res.Grid.Height {
		t.Fatalf("size = %dx%d, want %dx%d", g.Width, g.Height, res.Grid.Width, res.Grid.Height)
	}

	for _, want := range res.Grid.Tiles() {
		got := g.Get(want.Offset)
		if got.Elevation != want.Elevation || got.Moisture != want.Moisture || got.Temperature != want.Temperature {
			t.Fatalf("tile %v attributes differ after load", want.Offset)
		}
		if got.Category != want.Category || got.BiomeName() != want.BiomeName() {
			t.Fatalf("tile %v classification %s/%s, want %s/%s",
				want.Offset, got.Category, got.BiomeName(), want.Category, want.BiomeName())
		}
		if got.Rivers != want.Rivers || got.HasRiver != want.HasRiver {
			t.Fatalf("tile %v river state differs after load", want.Offset)
		}
		if got.Settlement != want.Settlement || got.Population != want.Population || got.SettlementName != want.SettlementName {
			t.Fatalf("tile %v settlement differs after load", want.Offset)
		}
		if got.IsStartingLocation != want.IsStartingLocation || got.Mountain != want.Mountain {
			t.Fatalf("tile %v decoration differs after load", want.Offset)
		}
	}

	report, err := stored.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.RiversCreated != res.Report.RiversCreated {
		t.Errorf("rivers created = %d, want %d", report.RiversCreated, res.Report.RiversCreated)
	}

	cfg, err := stored.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Width != res.Config.Width || len(cfg.Elevation.Bands) != len(res.Config.Elevation.Bands) {
		t.Errorf("config did not round trip")
	}
}

func TestLoadRivers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	res := generate(t)

	id, err := db.SaveWorld(ctx, res)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rivers, err := db.LoadRivers(ctx, id)
	if err != nil {
		t.Fatalf("load rivers: %v", err)
	}
	if len(rivers) != len(res.Report.Rivers) {
		t.Fatalf("got %d rivers, want %d", len(rivers), len(res.Report.Rivers))
	}
	for i, r := range rivers {
		want := res.Report.Rivers[i]
		if r.Mouth != want.Mouth || len(r.Tiles) != len(want.Tiles) {
			t.Fatalf("river %d differs after load", i)
		}
	}
}

func TestLoadWorldNotFound(t *testing.T) {
	db := openTestDB(t)
	_, _, err := db.LoadWorld(context.Background(), "missing")
	if !errors.Is(err, ErrWorldNotFound) {
		t.Fatalf("err = %v, want ErrWorldNotFound", err)
	}
}

func TestListAndDeleteWorlds(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	res := generate(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.SaveWorld(ctx, res)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	worlds, err := db.ListWorlds(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(worlds) != 2 {
		t.Fatalf("listed %d worlds, want 2", len(worlds))
	}
	if worlds[0].ID != ids[2] {
		t.Errorf("newest world = %s, want %s", worlds[0].ID, ids[2])
	}

	if err := db.DeleteWorld(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetWorld(ctx, ids[0]); !errors.Is(err, ErrWorldNotFound) {
		t.Fatalf("deleted world still found: %v", err)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("latest_world", "abc"); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	if err := db.SaveMeta("latest_world", "def"); err != nil {
		t.Fatalf("overwrite meta: %v", err)
	}
	v, err := db.GetMeta("latest_world")
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if v != "def" {
		t.Fatalf("meta = %q, want def", v)
	}
}
