// Package persistence provides SQLite storage for generated worlds.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexgen/internal/world"
)

// ErrWorldNotFound is returned when no world has the requested ID.
var ErrWorldNotFound = errors.New("world not found")

// DB wraps a SQLite connection for world storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_unix INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tiles (
		world_id TEXT NOT NULL,
		offset_col INTEGER NOT NULL,
		offset_row INTEGER NOT NULL,
		elevation REAL NOT NULL,
		moisture REAL NOT NULL,
		temperature REAL NOT NULL,
		category TEXT NOT NULL,
		biome TEXT NOT NULL,
		population INTEGER NOT NULL,
		has_housing INTEGER NOT NULL,
		is_occupied INTEGER NOT NULL,
		has_vegetation INTEGER NOT NULL,
		has_river INTEGER NOT NULL,
		settlement TEXT NOT NULL,
		settlement_name TEXT NOT NULL,
		river_edges INTEGER NOT NULL,
		is_starting INTEGER NOT NULL,
		is_extreme INTEGER NOT NULL,
		mountain TEXT NOT NULL,
		PRIMARY KEY (world_id, offset_col, offset_row)
	);

	CREATE TABLE IF NOT EXISTS river_steps (
		world_id TEXT NOT NULL,
		river INTEGER NOT NULL,
		step INTEGER NOT NULL,
		offset_col INTEGER NOT NULL,
		offset_row INTEGER NOT NULL,
		is_mouth INTEGER NOT NULL,
		PRIMARY KEY (world_id, river, step)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worlds_created ON worlds(created_unix);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StoredWorld is the header row of a saved world.
type StoredWorld struct {
	ID          string `db:"id" json:"id"`
	Seed        int64  `db:"seed" json:"seed"`
	Width       int    `db:"width" json:"width"`
	Height      int    `db:"height" json:"height"`
	CreatedUnix int64  `db:"created_unix" json:"created_unix"`
	ConfigJSON  string `db:"config_json" json:"-"`
	ReportJSON  string `db:"report_json" json:"-"`
}

// CreatedAt returns the save time.
func (w StoredWorld) CreatedAt() time.Time {
	return time.Unix(w.CreatedUnix, 0)
}

// Config decodes the generation config the world was built with.
func (w StoredWorld) Config() (world.GenConfig, error) {
	var cfg world.GenConfig
	if err := json.Unmarshal([]byte(w.ConfigJSON), &cfg); err != nil {
		return cfg, fmt.Errorf("decode config of %s: %w", w.ID, err)
	}
	return cfg, nil
}

// Report decodes the generation report.
func (w StoredWorld) Report() (*world.Report, error) {
	var r world.Report
	if err := json.Unmarshal([]byte(w.ReportJSON), &r); err != nil {
		return nil, fmt.Errorf("decode report of %s: %w", w.ID, err)
	}
	return &r, nil
}

type tileRow struct {
	WorldID        string  `db:"world_id"`
	Col            int     `db:"offset_col"`
	Row            int     `db:"offset_row"`
	Elevation      float64 `db:"elevation"`
	Moisture       float64 `db:"moisture"`
	Temperature    float64 `db:"temperature"`
	Category       string  `db:"category"`
	Biome          string  `db:"biome"`
	Population     int     `db:"population"`
	HasHousing     bool    `db:"has_housing"`
	IsOccupied     bool    `db:"is_occupied"`
	HasVegetation  bool    `db:"has_vegetation"`
	HasRiver       bool    `db:"has_river"`
	Settlement     string  `db:"settlement"`
	SettlementName string  `db:"settlement_name"`
	RiverEdges     int     `db:"river_edges"`
	IsStarting     bool    `db:"is_starting"`
	IsExtreme      bool    `db:"is_extreme"`
	Mountain       string  `db:"mountain"`
}

type riverStepRow struct {
	River   int  `db:"river"`
	Step    int  `db:"step"`
	Col     int  `db:"offset_col"`
	Row     int  `db:"offset_row"`
	IsMouth bool `db:"is_mouth"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveWorld writes a generated world and returns its new ID.
func (db *DB) SaveWorld(ctx context.Context, res *world.Result) (string, error) {
	id := uuid.NewString()

	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	reportJSON, err := json.Marshal(res.Report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO worlds
		(id, seed, width, height, created_unix, config_json, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, res.Config.Seed, res.Grid.Width, res.Grid.Height, time.Now().Unix(),
		string(cfgJSON), string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert world: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO tiles
		(world_id, offset_col, offset_row, elevation, moisture, temperature, category, biome,
		 population, has_housing, is_occupied, has_vegetation, has_river,
		 settlement, settlement_name, river_edges, is_starting, is_extreme, mountain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, t := range res.Grid.Tiles() {
		_, err := stmt.ExecContext(ctx,
			id, t.Offset.Col, t.Offset.Row, t.Elevation, t.Moisture, t.Temperature,
			t.Category.String(), t.BiomeName(), t.Population,
			boolInt(t.HasHousing), boolInt(t.IsOccupied), boolInt(t.HasVegetation), boolInt(t.HasRiver),
			t.Settlement.String(), t.SettlementName, int(t.Rivers),
			boolInt(t.IsStartingLocation), boolInt(t.IsExtremeSettlement), t.Mountain.String(),
		)
		if err != nil {
			return "", fmt.Errorf("insert tile %d,%d: %w", t.Offset.Col, t.Offset.Row, err)
		}
	}

	for i, r := range res.Report.Rivers {
		steps := append(append([]world.OffsetCoord(nil), r.Tiles...), r.Mouth)
		for j, c := range steps {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO river_steps (world_id, river, step, offset_col, offset_row, is_mouth) VALUES (?, ?, ?, ?, ?, ?)",
				id, i, j, c.Col, c.Row, boolInt(j == len(steps)-1),
			)
			if err != nil {
				return "", fmt.Errorf("insert river %d step %d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.Info("world saved", "id", id, "tiles", res.Grid.Len(), "rivers", len(res.Report.Rivers))
	return id, nil
}

// GetWorld returns the header row of a saved world.
func (db *DB) GetWorld(ctx context.Context, id string) (*StoredWorld, error) {
	var w StoredWorld
	err := db.conn.GetContext(ctx, &w, "SELECT * FROM worlds WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get world %s: %w", id, err)
	}
	return &w, nil
}

// LoadWorld rebuilds the grid of a saved world. Biomes are resolved against
// the catalog stored with the world's config.
func (db *DB) LoadWorld(ctx context.Context, id string) (*world.Grid, *StoredWorld, error) {
	w, err := db.GetWorld(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := w.Config()
	if err != nil {
		return nil, nil, err
	}
	catalog := world.NewBiomeCatalog(cfg.Catalog)

	var rows []tileRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM tiles WHERE world_id = ?", id); err != nil {
		return nil, nil, fmt.Errorf("select tiles of %s: %w", id, err)
	}

	g := world.NewGrid(w.Width, w.Height)
	unknown := make(map[string]*world.Biome)
	for _, r := range rows {
		t := g.At(r.Col, r.Row)
		if t == nil {
			return nil, nil, fmt.Errorf("tile %d,%d outside %dx%d world %s", r.Col, r.Row, w.Width, w.Height, id)
		}
		if err := applyRow(t, r); err != nil {
			return nil, nil, fmt.Errorf("tile %d,%d: %w", r.Col, r.Row, err)
		}
		if b, ok := catalog.Lookup(r.Biome); ok {
			t.Biome = b
		} else if r.Biome != "" {
			if unknown[r.Biome] == nil {
				unknown[r.Biome] = &world.Biome{Name: r.Biome}
			}
			t.Biome = unknown[r.Biome]
		}
	}

	return g, w, nil
}

func applyRow(t *world.Tile, r tileRow) error {
	if err := t.Category.UnmarshalText([]byte(r.Category)); err != nil {
		return err
	}
	if err := t.Settlement.UnmarshalText([]byte(r.Settlement)); err != nil {
		return err
	}
	if err := t.Mountain.UnmarshalText([]byte(r.Mountain)); err != nil {
		return err
	}
	t.Elevation = r.Elevation
	t.Moisture = r.Moisture
	t.Temperature = r.Temperature
	t.Population = r.Population
	t.HasHousing = r.HasHousing
	t.IsOccupied = r.IsOccupied
	t.HasVegetation = r.HasVegetation
	t.HasRiver = r.HasRiver
	t.SettlementName = r.SettlementName
	t.Rivers = world.RiverEdges(r.RiverEdges)
	t.IsStartingLocation = r.IsStarting
	t.IsExtremeSettlement = r.IsExtreme
	return nil
}

// LoadRivers returns the saved river paths of a world in creation order.
func (db *DB) LoadRivers(ctx context.Context, id string) ([]world.RiverPath, error) {
	var rows []riverStepRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT river, step, offset_col, offset_row, is_mouth FROM river_steps WHERE world_id = ? ORDER BY river, step",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select rivers of %s: %w", id, err)
	}

	var rivers []world.RiverPath
	for _, r := range rows {
		for len(rivers) <= r.River {
			rivers = append(rivers, world.RiverPath{})
		}
		c := world.OffsetCoord{Col: r.Col, Row: r.Row}
		if r.IsMouth {
			rivers[r.River].Mouth = c
			continue
		}
		rivers[r.River].Tiles = append(rivers[r.River].Tiles, c)
	}
	return rivers, nil
}

// ListWorlds returns the most recently saved worlds, newest first.
func (db *DB) ListWorlds(ctx context.Context, limit int) ([]StoredWorld, error) {
	var worlds []StoredWorld
	err := db.conn.SelectContext(ctx, &worlds,
		"SELECT * FROM worlds ORDER BY created_unix DESC, rowid DESC LIMIT ?",
		limit,
	)
	return worlds, err
}

// DeleteWorld removes a world and all its rows.
func (db *DB) DeleteWorld(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM river_steps WHERE world_id = ?",
		"DELETE FROM tiles WHERE world_id = ?",
		"DELETE FROM worlds WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete world %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
