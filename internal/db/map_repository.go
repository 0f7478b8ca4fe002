package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// ErrPackNotFound is returned when no pack was imported for a game.
var ErrPackNotFound = errors.New("map pack not found")

// MapRepository stores map-data packs in PostgreSQL, one pack per game.
type MapRepository struct {
	pool *pgxpool.Pool
}

// NewMapRepository creates a new PostgreSQL map repository.
func NewMapRepository(pool *pgxpool.Pool) *MapRepository {
	return &MapRepository{pool: pool}
}

// mapKey prefixes every child row.
func mapKey(game string, md *mapdata.MapDocument) []any {
	return []any{game, int16(md.Group), int16(md.Number)}
}

// SavePack replaces the stored pack for p.Game() in a single transaction.
func (r *MapRepository) SavePack(ctx context.Context, p *mapdata.Pack) error {
	doc := p.Document()
	fp := p.Fingerprint()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "game", doc.Game, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM map_packs WHERE game = $1`, doc.Game); err != nil {
		return fmt.Errorf("deleting previous pack %q: %w", doc.Game, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO map_packs (game, fingerprint) VALUES ($1, $2)`,
		doc.Game, fp[:],
	); err != nil {
		return fmt.Errorf("inserting pack %q: %w", doc.Game, err)
	}

	var (
		mapRows    [][]any
		connRows   [][]any
		legendRows [][]any
		tileRows   [][]any
		warpRows   [][]any
		eventRows  [][]any
		objectRows [][]any
	)
	for i := range doc.Maps {
		md := &doc.Maps[i]
		key := mapKey(doc.Game, md)
		row := func(vals ...any) []any {
			return append(append(make([]any, 0, len(key)+len(vals)), key...), vals...)
		}

		mapRows = append(mapRows, row(int32(i), md.Name, int32(md.Width), int32(md.Height)))
		for j, c := range md.Connections {
			connRows = append(connRows, row(int32(j), int16(c.Direction), int16(c.Group), int16(c.Number), int32(c.Offset)))
		}
		for sym, l := range md.Legend {
			legendRows = append(legendRows, row(sym, l.Behavior, l.Collision, int16(l.Elevation), l.Encounters))
		}
		for y, cells := range md.Rows {
			tileRows = append(tileRows, row(int32(y), cells))
		}
		for j, w := range md.Warps {
			warpRows = append(warpRows, row(int32(j), int32(w.X), int32(w.Y),
				int16(w.DestGroup), int16(w.DestNumber), int32(w.DestX), int32(w.DestY)))
		}
		for j, e := range md.CoordEvents {
			eventRows = append(eventRows, row(int32(j), int32(e.X), int32(e.Y), int32(e.Var), int32(e.Value), e.Weather))
		}
		for j, o := range md.Objects {
			objectRows = append(objectRows, row(int32(j), int16(o.LocalID), int32(o.X), int32(o.Y), int32(o.Flag)))
		}
	}

	keyCols := []string{"game", "map_group", "map_number"}
	copies := []struct {
		table string
		cols  []string
		rows  [][]any
	}{
		{"maps", []string{"ordinal", "name", "width", "height"}, mapRows},
		{"map_connections", []string{"ordinal", "direction", "dest_group", "dest_number", "edge_offset"}, connRows},
		{"map_legend", []string{"symbol", "behavior", "collision", "elevation", "encounters"}, legendRows},
		{"map_rows", []string{"y", "cells"}, tileRows},
		{"map_warps", []string{"ordinal", "x", "y", "dest_group", "dest_number", "dest_x", "dest_y"}, warpRows},
		{"map_coord_events", []string{"ordinal", "x", "y", "var", "value", "weather"}, eventRows},
		{"map_objects", []string{"ordinal", "local_id", "x", "y", "flag"}, objectRows},
	}
	for _, c := range copies {
		if len(c.rows) == 0 {
			continue
		}
		cols := append(append([]string{}, keyCols...), c.cols...)
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, cols, pgx.CopyFromRows(c.rows)); err != nil {
			return fmt.Errorf("copying %s for pack %q: %w", c.table, doc.Game, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("map pack saved", "game", doc.Game, "maps", len(doc.Maps), "fingerprint", fmt.Sprintf("%x", fp[:8]))
	return nil
}

// Games lists every game with a stored pack.
func (r *MapRepository) Games(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT game FROM map_packs ORDER BY game`)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	games, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning games: %w", err)
	}
	return games, nil
}

// LoadPack reads the stored pack for game and validates it like a YAML pack.
// Returns ErrPackNotFound if nothing was imported for game.
func (r *MapRepository) LoadPack(ctx context.Context, game string) (*mapdata.Pack, error) {
	var stored []byte
	err := r.pool.QueryRow(ctx, `SELECT fingerprint FROM map_packs WHERE game = $1`, game).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %q: %w", game, ErrPackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying pack %q: %w", game, err)
	}

	doc := mapdata.PackDocument{Game: game}
	index := make(map[mapdata.MapID]int)

	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, name, width, height
		 FROM maps WHERE game = $1 ORDER BY ordinal`, game)
	if err != nil {
		return nil, fmt.Errorf("querying maps of %q: %w", game, err)
	}
	var group, number int16
	var name string
	var width, height int32
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &name, &width, &height}, func() error {
		md := mapdata.MapDocument{
			Group:  uint8(group),
			Number: uint8(number),
			Name:   name,
			Width:  int(width),
			Height: int(height),
			Legend: make(map[string]mapdata.TileLegend),
			Rows:   make([]string, 0, height),
		}
		index[md.ID()] = len(doc.Maps)
		doc.Maps = append(doc.Maps, md)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning maps of %q: %w", game, err)
	}

	// Child rows are attached to their map through index.
	owner := func(g, n int16) (*mapdata.MapDocument, error) {
		i, ok := index[mapdata.MapID{Group: uint8(g), Number: uint8(n)}]
		if !ok {
			return nil, fmt.Errorf("row for map %d.%d: %w", g, n, mapdata.ErrUnknownMap)
		}
		return &doc.Maps[i], nil
	}

	if err := r.loadConnections(ctx, game, owner); err != nil {
		return nil, err
	}
	if err := r.loadLegend(ctx, game, owner); err != nil {
		return nil, err
	}
	if err := r.loadRows(ctx, game, owner); err != nil {
		return nil, err
	}
	if err := r.loadWarps(ctx, game, owner); err != nil {
		return nil, err
	}
	if err := r.loadCoordEvents(ctx, game, owner); err != nil {
		return nil, err
	}
	if err := r.loadObjects(ctx, game, owner); err != nil {
		return nil, err
	}

	p, err := mapdata.NewPack(doc)
	if err != nil {
		return nil, fmt.Errorf("stored pack %q: %w", game, err)
	}
	if fp := p.Fingerprint(); !bytes.Equal(fp[:], stored) {
		slog.Warn("stored map pack fingerprint mismatch", "game", game,
			"stored", fmt.Sprintf("%x", stored), "loaded", fmt.Sprintf("%x", fp[:]))
	}
	slog.Info("map pack loaded from database", "game", game, "maps", len(doc.Maps))
	return p, nil
}

type ownerFunc func(group, number int16) (*mapdata.MapDocument, error)

func (r *MapRepository) loadConnections(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, direction, dest_group, dest_number, edge_offset
		 FROM map_connections WHERE game = $1 ORDER BY map_group, map_number, ordinal`, game)
	if err != nil {
		return fmt.Errorf("querying connections of %q: %w", game, err)
	}
	var group, number, dir, destGroup, destNumber int16
	var offset int32
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &dir, &destGroup, &destNumber, &offset}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.Connections = append(md.Connections, mapdata.ConnectionDocument{
			Direction: grid.Direction(dir),
			Group:     uint8(destGroup),
			Number:    uint8(destNumber),
			Offset:    int(offset),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning connections of %q: %w", game, err)
	}
	return nil
}

func (r *MapRepository) loadLegend(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, symbol, behavior, collision, elevation, encounters
		 FROM map_legend WHERE game = $1`, game)
	if err != nil {
		return fmt.Errorf("querying legend of %q: %w", game, err)
	}
	var group, number, elevation int16
	var symbol, behavior string
	var collision, encounters bool
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &symbol, &behavior, &collision, &elevation, &encounters}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.Legend[symbol] = mapdata.TileLegend{
			Behavior:   behavior,
			Collision:  collision,
			Elevation:  uint8(elevation),
			Encounters: encounters,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning legend of %q: %w", game, err)
	}
	return nil
}

func (r *MapRepository) loadRows(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, cells
		 FROM map_rows WHERE game = $1 ORDER BY map_group, map_number, y`, game)
	if err != nil {
		return fmt.Errorf("querying rows of %q: %w", game, err)
	}
	var group, number int16
	var cells string
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &cells}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.Rows = append(md.Rows, cells)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning rows of %q: %w", game, err)
	}
	return nil
}

func (r *MapRepository) loadWarps(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, x, y, dest_group, dest_number, dest_x, dest_y
		 FROM map_warps WHERE game = $1 ORDER BY map_group, map_number, ordinal`, game)
	if err != nil {
		return fmt.Errorf("querying warps of %q: %w", game, err)
	}
	var group, number, destGroup, destNumber int16
	var x, y, destX, destY int32
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &x, &y, &destGroup, &destNumber, &destX, &destY}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.Warps = append(md.Warps, mapdata.WarpDocument{
			X: int(x), Y: int(y),
			DestGroup: uint8(destGroup), DestNumber: uint8(destNumber),
			DestX: int(destX), DestY: int(destY),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning warps of %q: %w", game, err)
	}
	return nil
}

func (r *MapRepository) loadCoordEvents(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, x, y, var, value, weather
		 FROM map_coord_events WHERE game = $1 ORDER BY map_group, map_number, ordinal`, game)
	if err != nil {
		return fmt.Errorf("querying coord events of %q: %w", game, err)
	}
	var group, number int16
	var x, y, variable, value int32
	var weather bool
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &x, &y, &variable, &value, &weather}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.CoordEvents = append(md.CoordEvents, mapdata.CoordEventDocument{
			X: int(x), Y: int(y), Var: uint16(variable), Value: uint16(value), Weather: weather,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning coord events of %q: %w", game, err)
	}
	return nil
}

func (r *MapRepository) loadObjects(ctx context.Context, game string, owner ownerFunc) error {
	rows, err := r.pool.Query(ctx,
		`SELECT map_group, map_number, local_id, x, y, flag
		 FROM map_objects WHERE game = $1 ORDER BY map_group, map_number, ordinal`, game)
	if err != nil {
		return fmt.Errorf("querying objects of %q: %w", game, err)
	}
	var group, number, localID int16
	var x, y, flag int32
	_, err = pgx.ForEachRow(rows, []any{&group, &number, &localID, &x, &y, &flag}, func() error {
		md, err := owner(group, number)
		if err != nil {
			return err
		}
		md.Objects = append(md.Objects, mapdata.ObjectDocument{
			LocalID: uint8(localID), X: int(x), Y: int(y), Flag: uint16(flag),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning objects of %q: %w", game, err)
	}
	return nil
}
