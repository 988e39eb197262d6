package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"example.com/rocklegends/internal/wire"
)

// Archiver writes broadcast rows through to Postgres. Archival is best
// effort: a failed write is logged and the world keeps running, the next
// update for the same identity repairs the row.
type Archiver struct {
	log     *slog.Logger
	players *PlayerStore
	bands   *BandStore
}

func NewArchiver(players *PlayerStore, bands *BandStore, log *slog.Logger) *Archiver {
	return &Archiver{log: log, players: players, bands: bands}
}

// Archive persists one event row by collection. Collections without a
// durable table are ignored.
func (a *Archiver) Archive(collection string, row json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch collection {
	case wire.CollectionPlayers:
		var r wire.PlayerRow
		if err = json.Unmarshal(row, &r); err == nil {
			if p := wire.Player(&r); p != nil {
				err = a.players.Upsert(ctx, *p)
			}
		}
	case wire.CollectionBands:
		var r wire.BandRow
		if err = json.Unmarshal(row, &r); err == nil {
			if b := wire.Band(&r); b != nil {
				err = a.bands.Upsert(ctx, *b)
			}
		}
	case wire.CollectionBattles:
		var r wire.BattleRow
		if err = json.Unmarshal(row, &r); err == nil {
			if b := wire.Battle(&r); b != nil {
				err = a.bands.UpsertBattle(ctx, *b)
			}
		}
	default:
		return
	}
	if err != nil {
		a.log.Error("archive failed", "collection", collection, "err", err)
	}
}
